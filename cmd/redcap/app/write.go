package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/usestring/redcap-mcp/internal/schema"
	"github.com/usestring/redcap-mcp/pkg/client"
)

// ImportOptions holds options for the import command
type ImportOptions struct {
	*GlobalOptions
	Create   bool
	Validate bool
	Params   map[string]string
}

// NewImportCommand creates the import command.
//
// The input is a JSON array of flat records read from a file or stdin. By
// default records are updated; --create imports new records and prints the
// ids REDCap assigned.
func NewImportCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &ImportOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import records from a JSON file (- for stdin)",
		Example: `  # Check against the data dictionary, then create
  redcap import --validate --create new.json

  # Update from a pipeline
  jq -c '[.[] | {record_id, weight}]' fixes.json | redcap import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.Create, "create", false, "create new records and print their ids")
	cmd.Flags().BoolVar(&opts.Validate, "validate", false, "check records against the data dictionary first")
	cmd.Flags().StringToStringVar(&opts.Params, "param", nil, "extra REDCap API parameter key=value (repeatable)")

	return cmd
}

func readRecords(cmd *cobra.Command, path string) ([]client.Record, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var records []client.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("reading %s: expected a JSON array of records: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s contains no records", path)
	}
	return records, nil
}

func runImport(cmd *cobra.Command, opts *ImportOptions, path string) error {
	records, err := readRecords(cmd, path)
	if err != nil {
		return err
	}
	c, err := getClient(opts.GlobalOptions)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if opts.Validate {
		dictionary, err := c.Metadata(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to export metadata: %w", err)
		}
		v, err := schema.FromMetadata(dictionary)
		if err != nil {
			return err
		}
		if res := v.ValidateValue(records); !res.Valid {
			return fmt.Errorf("records do not match the data dictionary:\n  %s", strings.Join(res.Errors, "\n  "))
		}
	}

	if opts.Create {
		ids, err := c.Create(ctx, records, requestOptions(opts.Params))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), ids)
	}

	ok, err := c.Update(ctx, records, requestOptions(opts.Params))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: REDCap did not report exactly one updated record")
	}
	fmt.Fprintln(cmd.OutOrStdout(), ok)
	return nil
}

// NewDeleteCommand creates the delete command. It refuses to run without
// --yes because REDCap deletes are permanent.
func NewDeleteCommand(globalOpts *GlobalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete RECORD...",
		Short: "Delete records",
		Example: `  redcap delete 14 15 --yes`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete %d record(s) without --yes", len(args))
			}
			c, err := getClient(globalOpts)
			if err != nil {
				return err
			}
			n, err := c.Delete(cmd.Context(), args, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d record(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")

	return cmd
}
