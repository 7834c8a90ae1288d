package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usestring/redcap-mcp/internal/query"
	"github.com/usestring/redcap-mcp/pkg/client"
)

// RecordsOptions holds options for the records command
type RecordsOptions struct {
	*GlobalOptions
	Records []string
	Fields  []string
	Forms   []string
	Events  []string
	Filter  string
	JQ      string
	Export  bool // run jq once over the whole export
	Params  map[string]string
}

// NewRecordsCommand creates the records command.
//
// Records are printed as a JSON array. With --jq the expression runs once per
// record (or once over the array with --jq-export) and every result is
// printed on its own line, like jq -c.
func NewRecordsCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &RecordsOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Export records",
		Example: `  # Two records, selected fields
  redcap records -r 1,2 -f age,sex

  # Ids of participants over 60, filtered by REDCap
  redcap records -f age --filter '[age] > 60' --jq .record_id

  # Count records per sex
  redcap records -f sex --jq-export --jq 'group_by(.sex) | map({sex: .[0].sex, n: length})'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Records, "record", "r", nil, "record ids to export (default: all)")
	cmd.Flags().StringSliceVarP(&opts.Fields, "field", "f", nil, "fields to export; record_id is always added")
	cmd.Flags().StringSliceVar(&opts.Forms, "form", nil, "instruments to export")
	cmd.Flags().StringSliceVarP(&opts.Events, "event", "e", nil, "unique event names to export")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "REDCap filter logic, e.g. \"[age] > 30\"")
	cmd.Flags().StringVar(&opts.JQ, "jq", "", "jq expression applied to the export")
	cmd.Flags().BoolVar(&opts.Export, "jq-export", false, "run --jq once over the whole export instead of per record")
	cmd.Flags().StringToStringVar(&opts.Params, "param", nil, "extra REDCap API parameter key=value (repeatable)")

	return cmd
}

func runRecords(cmd *cobra.Command, opts *RecordsOptions) error {
	engine := query.NewEngine()
	if opts.JQ != "" {
		if err := engine.ValidateExpression(opts.JQ); err != nil {
			return err
		}
	}

	c, err := getClient(opts.GlobalOptions)
	if err != nil {
		return err
	}
	records, err := c.Records(cmd.Context(), client.RecordsQuery{
		Records: opts.Records,
		Fields:  opts.Fields,
		Forms:   opts.Forms,
		Events:  opts.Events,
		Filter:  opts.Filter,
	}, requestOptions(opts.Params))
	if err != nil {
		return fmt.Errorf("failed to export records: %w", err)
	}
	if opts.JQ == "" {
		return printJSON(cmd.OutOrStdout(), records)
	}

	res, err := engine.QueryValue(records, opts.JQ, query.Options{
		PerRecord: !opts.Export,
		IDField:   client.RecordIDField,
	})
	if err != nil {
		return err
	}
	for _, v := range res.Values {
		line, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(line))
	}
	for _, msg := range res.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), "jq:", msg)
	}
	return nil
}

// NewMaxIDCommand creates the max-id command, which prints the highest
// numeric record id.
func NewMaxIDCommand(globalOpts *GlobalOptions) *cobra.Command {
	var next bool

	cmd := &cobra.Command{
		Use:   "max-id",
		Short: "Show the highest numeric record id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(globalOpts)
			if err != nil {
				return err
			}
			id, err := c.MaxID(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("failed to find max id: %w", err)
			}
			if next {
				id++
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&next, "next", false, "print the next free id instead")

	return cmd
}
