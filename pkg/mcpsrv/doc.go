// Package mcpsrv provides an extensible MCP server for a REDCap project.
//
// The server exposes the builtin redcap_* tools, redcap:// resources and
// workflow prompts over stdio. Custom tools, prompts and resources are added
// with functional options.
//
// # Basic Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rc := client.New(cfg.ClientConfig(nil))
//	server, err := mcpsrv.NewServer(rc, mcpsrv.WithConfig(cfg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Custom tools that need the REDCap client take Deps:
//
//	type CountInput struct {
//	    Form string `json:"form"`
//	}
//
//	type CountOutput struct {
//	    Complete int `json:"complete"`
//	}
//
//	mcpsrv.WithDepsTool(
//	    &mcp.Tool{Name: "count_complete", Description: "Count complete forms"},
//	    func(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	        return func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            rows, err := d.Client.Records(ctx, client.RecordsQuery{
//	                Fields: []string{in.Form + "_complete"},
//	                Filter: "[" + in.Form + "_complete] = '2'",
//	            }, nil)
//	            return nil, CountOutput{Complete: len(rows)}, err
//	        }
//	    },
//	)
//
// # Configuration
//
//	server, err := mcpsrv.NewServer(
//	    rc,
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/redcap-mcp.log"),
//	)
package mcpsrv
