package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSurveyLinkCommand creates the survey-link command.
func NewSurveyLinkCommand(globalOpts *GlobalOptions) *cobra.Command {
	var event string

	cmd := &cobra.Command{
		Use:   "survey-link RECORD INSTRUMENT",
		Short: "Print the survey link of a record",
		Example: `  # Follow-up survey of record 12 in a longitudinal project
  redcap survey-link 12 followup --event month_6_arm_1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(globalOpts)
			if err != nil {
				return err
			}
			link, err := c.SurveyLink(cmd.Context(), args[0], args[1], event, nil)
			if err != nil {
				return fmt.Errorf("failed to get survey link: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
	cmd.Flags().StringVarP(&event, "event", "e", "", "unique event name (longitudinal projects)")

	return cmd
}
