package tools

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/redcap-mcp/internal/schema"
	"github.com/usestring/redcap-mcp/pkg/client"
)

// maxReportedViolations bounds the validation errors echoed back to the caller.
const maxReportedViolations = 20

// ImportInput is the input for redcap_create_records and redcap_update_records.
type ImportInput struct {
	Data           []client.Record   `json:"data" jsonschema:"Flat records to import; each must carry the record id field"`
	Validate       bool              `json:"validate,omitempty" jsonschema:"Check data against the project data dictionary before importing"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim, e.g. {\"overwriteBehavior\": \"overwrite\"}"`
}

// CreateOutput is the output of redcap_create_records.
type CreateOutput struct {
	IDs   []any `json:"ids,omitempty"`
	Count int   `json:"count"`
}

// UpdateOutput is the output of redcap_update_records.
type UpdateOutput struct {
	Updated bool `json:"updated"`
}

// ToolCreateRecords imports new records and returns their ids.
func ToolCreateRecords(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ImportInput) (*sdkmcp.CallToolResult, CreateOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ImportInput) (*sdkmcp.CallToolResult, CreateOutput, error) {
		if err := d.checkImport(ctx, input); err != nil {
			return nil, CreateOutput{}, err
		}
		ids, err := d.Client.Create(ctx, input.Data, opts(input.RequestOptions))
		if err != nil {
			return nil, CreateOutput{}, err
		}
		return nil, CreateOutput{IDs: ids, Count: len(ids)}, nil
	}
}

// ToolUpdateRecords imports changes to one record. Updated is true only when
// REDCap reports exactly one record changed.
func ToolUpdateRecords(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ImportInput) (*sdkmcp.CallToolResult, UpdateOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ImportInput) (*sdkmcp.CallToolResult, UpdateOutput, error) {
		if err := d.checkImport(ctx, input); err != nil {
			return nil, UpdateOutput{}, err
		}
		ok, err := d.Client.Update(ctx, input.Data, opts(input.RequestOptions))
		if err != nil {
			return nil, UpdateOutput{}, err
		}
		return nil, UpdateOutput{Updated: ok}, nil
	}
}

func (d *Deps) checkImport(ctx context.Context, input ImportInput) error {
	if len(input.Data) == 0 {
		return ErrInvalidInput("data must contain at least one record")
	}
	if !input.Validate {
		return nil
	}

	dictionary, err := d.Client.Metadata(ctx, nil)
	if err != nil {
		return err
	}
	v, err := schema.FromMetadata(dictionary)
	if err != nil {
		return ErrInvalidInput(fmt.Sprintf("building validator: %v", err))
	}
	res := v.ValidateValue(input.Data)
	if res.Valid {
		return nil
	}

	errs := res.Errors
	if len(errs) > maxReportedViolations {
		errs = append(errs[:maxReportedViolations:maxReportedViolations], fmt.Sprintf("... %d more", len(res.Errors)-maxReportedViolations))
	}
	return ErrInvalidInput("data does not match the data dictionary:\n" + strings.Join(errs, "\n"))
}

// DeleteInput is the input for redcap_delete_records.
type DeleteInput struct {
	Records        []string          `json:"records" jsonschema:"Record ids to delete"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim, e.g. {\"arm\": \"2\"}"`
}

// DeleteOutput is the output of redcap_delete_records.
type DeleteOutput struct {
	Deleted int `json:"deleted"`
}

// ToolDeleteRecords deletes records. An empty list deletes nothing.
func ToolDeleteRecords(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DeleteInput) (*sdkmcp.CallToolResult, DeleteOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DeleteInput) (*sdkmcp.CallToolResult, DeleteOutput, error) {
		n, err := d.Client.Delete(ctx, splitList(input.Records), opts(input.RequestOptions))
		if err != nil {
			return nil, DeleteOutput{}, err
		}
		return nil, DeleteOutput{Deleted: n}, nil
	}
}
