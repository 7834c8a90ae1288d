// Package app provides the command-line interface implementation for redcap.
//
// Each subcommand maps to one REDCap API export or import. Commands print
// JSON to stdout so their output can be piped into other tools; logs go to
// stderr.
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/usestring/redcap-mcp/internal/config"
	"github.com/usestring/redcap-mcp/internal/logging"
	"github.com/usestring/redcap-mcp/pkg/client"
)

const (
	cliName        = "redcap"
	cliDescription = "redcap - command-line access to a REDCap project"
)

// GlobalOptions holds options that are common to all commands
type GlobalOptions struct {
	// Host is the REDCap API URL, e.g. https://redcap.example.edu/api/
	Host string

	// Token is the project API token
	Token string

	// ConfigFile is a YAML file applied over the environment
	ConfigFile string

	// Verbose logs every request and response to stderr
	Verbose bool
}

// NewRedcapCommand creates the root redcap command with all subcommands.
func NewRedcapCommand() *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   cliName,
		Short: cliDescription,
		Long: `redcap talks to the REDCap API of a single project.

The project is selected by its API URL and token, taken from --host and
--token or from REDCAP_HOST and REDCAP_TOKEN. Set REDCAP_CACHE=ON to memoize
identical exports within one invocation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			_, _, err := logging.Setup(logging.Config{Level: level, Format: "text"})
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Host, "host", "",
		"REDCap API URL (default: $REDCAP_HOST)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "",
		"project API token (default: $REDCAP_TOKEN)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "",
		"YAML config file (default: $REDCAP_CONFIG)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"log requests and responses to stderr")

	cmd.AddCommand(
		NewProjectCommand(opts),
		NewVersionCommand(opts),
		NewMetadataCommand(opts),
		NewFieldsCommand(opts),
		NewRecordsCommand(opts),
		NewMaxIDCommand(opts),
		NewSurveyLinkCommand(opts),
		NewFileCommand(opts),
		NewImportCommand(opts),
		NewDeleteCommand(opts),
	)

	return cmd
}

// loadConfig resolves configuration from the environment, the config file
// and finally the global flags, in increasing priority.
func loadConfig(opts *GlobalOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.ConfigFile != "" {
		if err := cfg.LoadFile(opts.ConfigFile); err != nil {
			return nil, err
		}
	}
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Token != "" {
		cfg.Token = opts.Token
	}
	return cfg, nil
}

// getClient creates a REDCap client from the resolved configuration.
func getClient(opts *GlobalOptions) (*client.Client, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireJSON(); err != nil {
		return nil, err
	}
	if cfg.Host == "" || cfg.Token == "" {
		return nil, fmt.Errorf("REDCap host and token are required (--host/--token or %s/%s)", client.EnvHost, client.EnvToken)
	}
	return client.New(cfg.ClientConfig(nil), client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClientTimeout})), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// requestOptions converts repeated --param key=value flags.
func requestOptions(params map[string]string) client.RequestOptions {
	if len(params) == 0 {
		return nil
	}
	return client.RequestOptions(params)
}
