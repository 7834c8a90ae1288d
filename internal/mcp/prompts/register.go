package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "redcap_tool_guide",
		Description: "RECOMMENDED: How to use the redcap_* tools without pulling whole projects into context.",
	}, HandleToolGuide(cfg))

	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "summarize_project",
		Description: "Describe a REDCap project: design, instruments, events, and data completeness.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "focus",
				Description: "Instrument or topic to concentrate on (e.g. 'adverse events')",
				Required:    false,
			},
		},
	}, HandleSummarizeProject(cfg))

	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "prepare_import",
		Description: "Turn source data into REDCap records, validate them against the data dictionary, then import.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "instrument",
				Description: "Instrument the data belongs to",
				Required:    false,
			},
			{
				Name:        "mode",
				Description: "create (new records) or update (existing records); default create",
				Required:    false,
			},
		},
	}, HandlePrepareImport(cfg))
}
