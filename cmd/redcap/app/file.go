package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// FileOptions holds options for the file command
type FileOptions struct {
	*GlobalOptions
	Event  string
	Output string
}

// NewFileCommand creates the file command, which downloads the file stored in
// a file upload field.
func NewFileCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &FileOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "file RECORD FIELD",
		Short: "Download an uploaded file",
		Long: `Download the file stored in a file upload field.

Without --output the file is written to stdout. Use "--output ." to save it
under the name REDCap reports.`,
		Example: `  # Save the signed consent of record 3
  redcap file 3 consent_form --output .`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(cmd, opts, args[0], args[1])
		},
	}
	cmd.Flags().StringVarP(&opts.Event, "event", "e", "", "unique event name (longitudinal projects)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output path, or . for the REDCap file name")

	return cmd
}

func runFile(cmd *cobra.Command, opts *FileOptions, record, field string) error {
	c, err := getClient(opts.GlobalOptions)
	if err != nil {
		return err
	}
	fr, err := c.File(cmd.Context(), record, field, opts.Event, nil)
	if err != nil {
		return err
	}
	defer fr.Body.Close()

	if fr.StatusCode < 200 || fr.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(fr.Body, 512))
		return fmt.Errorf("REDCap returned %d %s: %s", fr.StatusCode, http.StatusText(fr.StatusCode), strings.TrimSpace(string(body)))
	}

	var w io.Writer = cmd.OutOrStdout()
	path := opts.Output
	if path == "." {
		if fr.Filename == "" {
			return fmt.Errorf("REDCap sent no file name; pass --output PATH")
		}
		path = filepath.Base(fr.Filename)
	}
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	n, err := io.Copy(w, fr.Body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "saved %s (%d bytes)\n", path, n)
	}
	return nil
}
