package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleToolGuide serves the tool usage guide. Cache notes are included only
// when response memoization is on.
func HandleToolGuide(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# REDCap Tool Guide\n\n")
		if cfg.Host != "" {
			fmt.Fprintf(&sb, "Connected to `%s`. All tools act on the one project the API token belongs to.\n\n", cfg.Host)
		}

		sb.WriteString("## Learn the Project First\n\n")
		sb.WriteString("| Goal | Tool |\n")
		sb.WriteString("|------|------|\n")
		sb.WriteString("| Title, longitudinal flag, surveys | `redcap_project` |\n")
		sb.WriteString("| Field names only | `redcap_fields` |\n")
		sb.WriteString("| Field types, choices, validation | `redcap_metadata` |\n")
		sb.WriteString("| Forms and their labels | `redcap_instruments` |\n")
		sb.WriteString("| Events and which forms they hold | `redcap_events`, `redcap_form_event_mapping` |\n")
		sb.WriteString("| Checkbox export columns | `redcap_export_field_names` |\n")
		sb.WriteString("| A few values from the ODM document | `redcap_project_xml` with `xpath` |\n")

		sb.WriteString("\n## Export Records (Token-Optimized)\n")
		fmt.Fprintf(&sb, "- Results are capped at %d items unless `max_results` is set. Check `truncated` and `total`.\n", cfg.DefaultLimit)
		sb.WriteString("- Always narrow first: `fields`, `forms`, `records`, `events` and `filter` are applied by REDCap before anything is sent back.\n")
		sb.WriteString("- `filter` uses REDCap logic syntax: `[age] > 60 and [sex] = '1'`.\n")
		sb.WriteString("- `jq` reduces the export locally. By default it runs once per record and reports `matched_records`:\n")
		sb.WriteString("  - `select(.sex == \"1\") | .record_id`\n")
		sb.WriteString("  - `{id: .record_id, bmi: ((.weight | tonumber) / ((.height | tonumber) / 100 | . * .))}`\n")
		sb.WriteString("- Set `jq_scope: \"export\"` to run jq once over the whole list: `group_by(.sex) | map({sex: .[0].sex, n: length})`.\n")
		sb.WriteString("- All values arrive as strings. Use `tonumber` before comparing numerically.\n")
		sb.WriteString("- `redcap_records_schema` reports fill rate, distinct values and detected formats per field. Use it before writing jq against unfamiliar data.\n")

		sb.WriteString("\n## Files and Surveys\n")
		fmt.Fprintf(&sb, "- `redcap_file` returns text inline and anything else base64 encoded, cut at %d bytes.\n", cfg.FileMaxBytes)
		sb.WriteString("- `redcap_survey_link` needs `record` and `instrument`; add `event` on longitudinal projects.\n")

		sb.WriteString("\n## Writing Data\n")
		sb.WriteString("- Records are flat objects keyed by export column name. Checkbox options are separate columns like `race___2`.\n")
		sb.WriteString("- Use codes, not labels: radio `\"1\"`, yes/no `\"0\"`/`\"1\"`, form status `<form>_complete` `\"0\"`-`\"2\"`.\n")
		sb.WriteString("- Pass `validate: true` to check data against the data dictionary before anything is written.\n")
		sb.WriteString("- `redcap_update_records` reports `updated: true` only when exactly one record changed.\n")
		sb.WriteString("- Deletes are permanent. Confirm the ids with the user before calling `redcap_delete_records`.\n")

		sb.WriteString("\n## Extra API Parameters\n")
		sb.WriteString("Every tool takes `request_options`, sent to REDCap verbatim and overriding generated keys. Examples:\n")
		sb.WriteString("- `{\"rawOrLabel\": \"label\"}` to export choice labels\n")
		sb.WriteString("- `{\"exportDataAccessGroups\": \"true\"}` to add the DAG column\n")
		sb.WriteString("- `{\"overwriteBehavior\": \"overwrite\"}` to blank out fields on import\n")

		if cfg.CacheEnabled {
			sb.WriteString("\n## Caching\n")
			sb.WriteString("Identical exports are answered from a cache. Any create, update or delete clears it, so reads after writes are fresh.\n")
		}

		return &sdkmcp.GetPromptResult{
			Description: "Guide for efficient REDCap tool usage",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
