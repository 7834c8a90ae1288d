package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Project
	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_project",
		Description: "Export the REDCap project settings (title, purpose, longitudinal flag, surveys enabled, record autonumbering) together with the server version. Start here to learn the project shape.",
	}, ToolProject(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_project_xml",
		Description: "Export the whole project as CDISC ODM XML. Large: pass xpath (e.g. //*[local-name()='ItemDef']/@Name) to return only matching text, or request_options {\"returnMetadataOnly\": \"true\"} to skip data.",
	}, ToolProjectXML(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_users",
		Description: "List the project users and their rights.",
	}, ToolList(d, d.Client.Users))

	// Data dictionary
	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_metadata",
		Description: "Export the data dictionary: one item per field with field_name, form_name, field_type, field_label, select_choices_or_calculations, and validation. Narrow with forms; use redcap_fields when only names are needed.",
	}, ToolMetadata(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_fields",
		Description: "List every field name of the data dictionary in order.",
	}, ToolFields(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_instruments",
		Description: "List the instruments (forms) with their labels.",
	}, ToolList(d, d.Client.Instruments))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_form_event_mapping",
		Description: "List which instruments are designated for which events (longitudinal projects).",
	}, ToolList(d, d.Client.FormEventMapping))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_export_field_names",
		Description: "Map each field to its export column names; checkbox fields expand to one column per choice (field___code).",
	}, ToolList(d, d.Client.ExportFieldNames))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_arms",
		Description: "List the arms of a longitudinal project.",
	}, ToolList(d, d.Client.Arms))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_events",
		Description: "List the events of a longitudinal project with their unique event names.",
	}, ToolList(d, d.Client.Events))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_repeating_forms_events",
		Description: "List the repeating instruments and events.",
	}, ToolList(d, d.Client.RepeatingFormsEvents))

	// Records
	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_records",
		Description: "Export records in flat JSON. Filter with records, fields, forms, events, or REDCap filter logic. Pass jq to reduce the export (run per record by default, e.g. 'select(.age | tonumber? > 60) | .record_id'). record_id is always included when fields are given.",
	}, ToolRecords(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_report",
		Description: "Export the rows of a saved REDCap report by report_id.",
	}, ToolReport(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_records_schema",
		Description: "Infer a JSON Schema and per-field statistics (fill rate, distinct values, detected formats such as integer, date, email, enum) from exported records.",
	}, ToolRecordsSchema(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_max_id",
		Description: "Return the highest numeric record_id and the next free id. Non-numeric ids are ignored.",
	}, ToolMaxID(d))

	// Surveys and files
	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_survey_link",
		Description: "Return the unique survey link of a record for a survey-enabled instrument.",
	}, ToolSurveyLink(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_participant_list",
		Description: "Export the survey participant list of an instrument.",
	}, ToolParticipantList(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_file",
		Description: "Download the file stored in a file upload field of a record. Text files come back inline, others base64 encoded.",
	}, ToolFile(d))

	// Writes
	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_create_records",
		Description: "Import new records and return the ids REDCap assigned. Set validate=true to check the data against the data dictionary first. Clears the response cache.",
	}, ToolCreateRecords(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_update_records",
		Description: "Import changes to an existing record. updated is true only when exactly one record changed. Set validate=true to check the data against the data dictionary first. Clears the response cache.",
	}, ToolUpdateRecords(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "redcap_delete_records",
		Description: "Delete records by id and return how many were deleted. An empty list is a no-op. Clears the response cache.",
	}, ToolDeleteRecords(d))
}
