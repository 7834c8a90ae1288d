package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/redcap-mcp/internal/query"
	"github.com/usestring/redcap-mcp/pkg/client"
	"github.com/usestring/redcap-mcp/pkg/jsonschema"
)

// RecordsInput is the input for redcap_records.
type RecordsInput struct {
	Records        []string          `json:"records,omitempty" jsonschema:"Record ids to export (default: all)"`
	Fields         []string          `json:"fields,omitempty" jsonschema:"Field names to export (default: all); record_id is always added"`
	Forms          []string          `json:"forms,omitempty" jsonschema:"Instrument names to export"`
	Events         []string          `json:"events,omitempty" jsonschema:"Unique event names to export (longitudinal projects)"`
	Filter         string            `json:"filter,omitempty" jsonschema:"REDCap filter logic, e.g. [age] > 30"`
	JQ             string            `json:"jq,omitempty" jsonschema:"jq expression applied to the exported records"`
	JQScope        string            `json:"jq_scope,omitempty" jsonschema:"record (default): run jq once per record; export: run it once on the whole list"`
	Deduplicate    bool              `json:"deduplicate,omitempty" jsonschema:"Drop duplicate jq values"`
	MaxResults     int               `json:"max_results,omitempty" jsonschema:"Max records or jq values to return (default from DEFAULT_QUERY_LIMIT)"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim, e.g. {\"rawOrLabel\": \"label\"}"`
}

// RecordsOutput is the output of redcap_records.
type RecordsOutput struct {
	Records        []client.Record `json:"records,omitempty"`
	Values         []any           `json:"values,omitempty"`
	Errors         []string        `json:"errors,omitempty"`
	MatchedRecords []string        `json:"matched_records,omitempty"`
	Count          int             `json:"count"`
	Total          int             `json:"total"` // records exported before truncation or jq
	Truncated      bool            `json:"truncated,omitempty"`
	Hint           string          `json:"hint,omitempty"`
}

// ToolRecords exports records, optionally reducing them with a jq expression.
func ToolRecords(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input RecordsInput) (*sdkmcp.CallToolResult, RecordsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input RecordsInput) (*sdkmcp.CallToolResult, RecordsOutput, error) {
		perRecord := true
		switch input.JQScope {
		case "", "record":
		case "export":
			perRecord = false
		default:
			return nil, RecordsOutput{}, ErrInvalidInput("jq_scope must be 'record' or 'export'")
		}
		if input.JQ != "" {
			if err := d.Query.ValidateExpression(input.JQ); err != nil {
				return nil, RecordsOutput{}, ErrInvalidInput(err.Error())
			}
		}

		records, err := d.Client.Records(ctx, client.RecordsQuery{
			Records: splitList(input.Records),
			Fields:  splitList(input.Fields),
			Forms:   splitList(input.Forms),
			Events:  splitList(input.Events),
			Filter:  input.Filter,
		}, opts(input.RequestOptions))
		if err != nil {
			return nil, RecordsOutput{}, err
		}

		limit := d.limit(input.MaxResults)
		if input.JQ == "" {
			out := RecordsOutput{Total: len(records)}
			out.Records, out.Truncated = page(records, limit)
			out.Count = len(out.Records)
			if out.Truncated {
				out.Hint = fmt.Sprintf("Showing %d of %d records. Narrow with records, fields or filter, or reduce with jq.", out.Count, out.Total)
			}
			return nil, out, nil
		}

		res, err := d.Query.QueryValue(records, input.JQ, query.Options{
			Deduplicate: input.Deduplicate,
			MaxResults:  limit,
			PerRecord:   perRecord,
			IDField:     client.RecordIDField,
		})
		if err != nil {
			return nil, RecordsOutput{}, ErrInvalidInput(err.Error())
		}
		out := RecordsOutput{
			Values:         res.Values,
			Errors:         res.Errors,
			MatchedRecords: res.MatchedRecords,
			Count:          len(res.Values),
			Total:          len(records),
			Truncated:      res.Truncated,
		}
		if out.Count == 0 && len(records) > 0 {
			out.Hint = "No values matched. Per-record expressions see one record object, e.g. 'select(.age != \"\") | .age'."
		}
		return nil, out, nil
	}
}

// ReportInput is the input for redcap_report.
type ReportInput struct {
	ReportID       string            `json:"report_id" jsonschema:"Report id shown in the REDCap report list"`
	MaxResults     int               `json:"max_results,omitempty" jsonschema:"Max rows to return"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim"`
}

// ToolReport exports the rows of a saved report.
func ToolReport(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ReportInput) (*sdkmcp.CallToolResult, ListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ReportInput) (*sdkmcp.CallToolResult, ListOutput, error) {
		if input.ReportID == "" {
			return nil, ListOutput{}, ErrInvalidInput("report_id is required")
		}
		rows, err := d.Client.Report(ctx, input.ReportID, opts(input.RequestOptions))
		if err != nil {
			return nil, ListOutput{}, err
		}
		total := len(rows)
		rows, truncated := page(rows, d.limit(input.MaxResults))
		return nil, ListOutput{Items: rows, Count: len(rows), Total: total, Truncated: truncated}, nil
	}
}

// RecordsSchemaInput is the input for redcap_records_schema.
type RecordsSchemaInput struct {
	Records        []string          `json:"records,omitempty" jsonschema:"Record ids to sample (default: all)"`
	Fields         []string          `json:"fields,omitempty" jsonschema:"Field names to include"`
	Forms          []string          `json:"forms,omitempty" jsonschema:"Instrument names to include"`
	Filter         string            `json:"filter,omitempty" jsonschema:"REDCap filter logic selecting the sample"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim"`
}

// RecordsSchemaOutput is the output of redcap_records_schema.
type RecordsSchemaOutput struct {
	Schema      any                    `json:"schema"`
	RecordCount int                    `json:"record_count"`
	Fields      []jsonschema.FieldStat `json:"fields,omitempty"`
}

// ToolRecordsSchema infers a JSON Schema and per-field statistics from exported records.
func ToolRecordsSchema(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input RecordsSchemaInput) (*sdkmcp.CallToolResult, RecordsSchemaOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input RecordsSchemaInput) (*sdkmcp.CallToolResult, RecordsSchemaOutput, error) {
		records, err := d.Client.Records(ctx, client.RecordsQuery{
			Records: splitList(input.Records),
			Fields:  splitList(input.Fields),
			Forms:   splitList(input.Forms),
			Filter:  input.Filter,
		}, opts(input.RequestOptions))
		if err != nil {
			return nil, RecordsSchemaOutput{}, err
		}

		rows := make([]map[string]any, len(records))
		for i, r := range records {
			rows[i] = r
		}
		inferred := jsonschema.InferRecords(rows)
		schema, err := toAny(inferred.Schema)
		if err != nil {
			return nil, RecordsSchemaOutput{}, fmt.Errorf("encoding schema: %w", err)
		}
		return nil, RecordsSchemaOutput{
			Schema:      schema,
			RecordCount: inferred.RecordCount,
			Fields:      inferred.Fields,
		}, nil
	}
}

// MaxIDOutput is the output of redcap_max_id.
type MaxIDOutput struct {
	MaxID  int `json:"max_id"`
	NextID int `json:"next_id"`
}

// ToolMaxID reports the highest numeric record id.
func ToolMaxID(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProjectInput) (*sdkmcp.CallToolResult, MaxIDOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProjectInput) (*sdkmcp.CallToolResult, MaxIDOutput, error) {
		id, err := d.Client.MaxID(ctx, opts(input.RequestOptions))
		if err != nil {
			return nil, MaxIDOutput{}, err
		}
		return nil, MaxIDOutput{MaxID: id, NextID: id + 1}, nil
	}
}
