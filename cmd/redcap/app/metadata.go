package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/usestring/redcap-mcp/pkg/richtext"
)

// MetadataOptions holds options for the metadata command
type MetadataOptions struct {
	*GlobalOptions
	Forms  []string
	JSON   bool
	Params map[string]string
}

// NewMetadataCommand creates the metadata command.
//
// By default the data dictionary is printed as a table of field name, form,
// type and label. --json prints every column REDCap returns.
func NewMetadataCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &MetadataOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:     "metadata",
		Aliases: []string{"dictionary"},
		Short:   "Show the data dictionary",
		Example: `  # Fields of the baseline form
  redcap metadata --form baseline

  # Full dictionary as JSON
  redcap metadata --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetadata(cmd, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Forms, "form", nil, "only fields of these instruments")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the full dictionary as JSON")
	cmd.Flags().StringToStringVar(&opts.Params, "param", nil, "extra REDCap API parameter key=value (repeatable)")

	return cmd
}

func runMetadata(cmd *cobra.Command, opts *MetadataOptions) error {
	c, err := getClient(opts.GlobalOptions)
	if err != nil {
		return err
	}
	params := requestOptions(opts.Params)
	for i, form := range opts.Forms {
		if params == nil {
			params = map[string]string{}
		}
		params[fmt.Sprintf("forms[%d]", i)] = form
	}

	fields, err := c.Metadata(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("failed to export metadata: %w", err)
	}
	if opts.JSON {
		return printJSON(cmd.OutOrStdout(), fields)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FIELD\tFORM\tTYPE\tLABEL")
	for _, f := range fields {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			f.String("field_name"),
			f.String("form_name"),
			f.String("field_type"),
			oneLine(f.String("field_label"), 60),
		)
	}
	return w.Flush()
}

// oneLine reduces rich text to plain text and cuts it to n runes.
func oneLine(s string, n int) string {
	s = richtext.PlainText(s)
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

// NewFieldsCommand creates the fields command, which prints one field name
// per line in dictionary order.
func NewFieldsCommand(globalOpts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List field names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(globalOpts)
			if err != nil {
				return err
			}
			names, err := c.Fields(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("failed to list fields: %w", err)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
