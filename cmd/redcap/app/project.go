package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ProjectOptions holds options for the project command
type ProjectOptions struct {
	*GlobalOptions
	Params map[string]string
}

// NewProjectCommand creates the project command, which prints the project
// settings as JSON.
func NewProjectCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &ProjectOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Show project settings",
		Example: `  # Show the title and flags of the project
  redcap project`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(opts.GlobalOptions)
			if err != nil {
				return err
			}
			project, err := c.Project(cmd.Context(), requestOptions(opts.Params))
			if err != nil {
				return fmt.Errorf("failed to export project: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), project)
		},
	}
	cmd.Flags().StringToStringVar(&opts.Params, "param", nil, "extra REDCap API parameter key=value (repeatable)")

	return cmd
}

// NewVersionCommand creates the version command, which prints the REDCap
// server version.
func NewVersionCommand(globalOpts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the REDCap server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(globalOpts)
			if err != nil {
				return err
			}
			v, err := c.Version(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}
