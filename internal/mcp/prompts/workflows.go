package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func argument(req *sdkmcp.GetPromptRequest, name string) string {
	if req == nil || req.Params == nil || req.Params.Arguments == nil {
		return ""
	}
	return strings.TrimSpace(req.Params.Arguments[name])
}

// HandleSummarizeProject implements the project summary workflow.
func HandleSummarizeProject(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		focus := argument(req, "focus")

		var sb strings.Builder
		sb.WriteString("# Summarize REDCap Project\n\n")
		sb.WriteString("You are a clinical data manager reviewing a REDCap project for a colleague who has never seen it. ")
		sb.WriteString("Report what the project collects and how complete the data is. Do not print identifiers or free-text values.\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Project settings** - `redcap_project`. Note purpose, longitudinal flag and whether surveys are enabled.\n")
		sb.WriteString("2. **Structure** - `redcap_instruments`, then `redcap_events` and `redcap_form_event_mapping` if longitudinal.\n")
		sb.WriteString("3. **Fields** - `redcap_metadata`. Group fields by instrument and type; count required and validated fields.\n")
		if focus != "" {
			fmt.Fprintf(&sb, "   - Concentrate on fields related to **%s**.\n", focus)
		}
		sb.WriteString("4. **Size** - `redcap_max_id` for the highest record id.\n")
		sb.WriteString("5. **Completeness** - `redcap_records_schema` with `fields` limited to the instrument of interest; read `filled` per field.\n")
		sb.WriteString("6. **Status** - `redcap_records` with `fields: [\"<form>_complete\"]` and `jq_scope: \"export\"`, ")
		sb.WriteString("jq `group_by(.<form>_complete) | map({status: .[0].<form>_complete, n: length})`.\n\n")

		sb.WriteString("## Output\n\n")
		sb.WriteString("- One paragraph on the study design\n")
		sb.WriteString("- A table of instruments with field counts and completion rates\n")
		sb.WriteString("- Fields with fill rate under 50%\n")
		sb.WriteString("- Anything unusual (unvalidated date fields, free-text where a dropdown fits)\n")

		return &sdkmcp.GetPromptResult{
			Description: "Project summary workflow",
			Messages: []*sdkmcp.PromptMessage{
				{Role: "user", Content: &sdkmcp.TextContent{Text: sb.String()}},
			},
		}, nil
	}
}

// HandlePrepareImport implements the import workflow.
func HandlePrepareImport(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		instrument := argument(req, "instrument")
		mode := argument(req, "mode")
		if mode != "update" {
			mode = "create"
		}

		var sb strings.Builder
		sb.WriteString("# Prepare a REDCap Import\n\n")
		sb.WriteString("Convert the data the user provides into flat REDCap records and import them safely.\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		if instrument != "" {
			fmt.Fprintf(&sb, "1. **Dictionary** - read `redcap://instrument/%s` (or `redcap_metadata`) for field names, types and choice codes.\n", instrument)
		} else {
			sb.WriteString("1. **Dictionary** - `redcap_metadata` for field names, types and choice codes.\n")
		}
		sb.WriteString("2. **Columns** - `redcap_export_field_names` to get checkbox columns (`field___code`).\n")
		if mode == "create" {
			sb.WriteString("3. **Ids** - `redcap_max_id` and number new records from `next_id` unless the project autonumbers.\n")
		} else {
			sb.WriteString("3. **Ids** - confirm each record exists with `redcap_records` and `fields: [\"record_id\"]`.\n")
		}
		sb.WriteString("4. **Map values** - labels to codes, dates to `YYYY-MM-DD`, blanks to `\"\"`.\n")
		fmt.Fprintf(&sb, "5. **Import** - `redcap_%s_records` with `validate: true`. Fix every reported path and retry.\n", mode)
		sb.WriteString("6. **Verify** - export the written records and compare a sample with the source.\n\n")

		sb.WriteString("## Rules\n\n")
		sb.WriteString("- Never guess a choice code. Ask the user when a value has no matching code.\n")
		sb.WriteString("- Do not import more than 100 records per call.\n")
		if mode == "update" {
			sb.WriteString("- Blank values are ignored unless `request_options` sets `overwriteBehavior` to `overwrite`. Only do that when the user asks.\n")
		}

		return &sdkmcp.GetPromptResult{
			Description: fmt.Sprintf("Import workflow (%s)", mode),
			Messages: []*sdkmcp.PromptMessage{
				{Role: "user", Content: &sdkmcp.TextContent{Text: sb.String()}},
			},
		}, nil
	}
}
