package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/redcap-mcp/internal/query"
	"github.com/usestring/redcap-mcp/pkg/client"
	"github.com/usestring/redcap-mcp/pkg/richtext"
)

// ProjectInput is the input for redcap_project.
type ProjectInput struct {
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim"`
}

// ProjectOutput is the output of redcap_project.
type ProjectOutput struct {
	Project       client.Record `json:"project,omitempty"`
	ServerVersion string        `json:"server_version,omitempty"`
}

// ToolProject exports the project settings along with the server version.
func ToolProject(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProjectInput) (*sdkmcp.CallToolResult, ProjectOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProjectInput) (*sdkmcp.CallToolResult, ProjectOutput, error) {
		var out ProjectOutput
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			project, err := d.Client.Project(gctx, opts(input.RequestOptions))
			out.Project = project
			return err
		})
		g.Go(func() error {
			// older servers reject content=version; the project export is still useful
			if v, err := d.Client.Version(gctx); err == nil {
				out.ServerVersion = v
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, ProjectOutput{}, err
		}
		return nil, out, nil
	}
}

// ProjectXMLInput is the input for redcap_project_xml.
type ProjectXMLInput struct {
	XPath          string            `json:"xpath,omitempty" jsonschema:"XPath expression evaluated against the CDISC ODM document; when set only the matched text is returned"`
	MaxResults     int               `json:"max_results,omitempty" jsonschema:"Max XPath matches to return"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim, e.g. {\"returnMetadataOnly\": \"true\"}"`
}

// ProjectXMLOutput is the output of redcap_project_xml.
type ProjectXMLOutput struct {
	XML       string   `json:"xml,omitempty"`
	Matches   []string `json:"matches,omitempty"`
	Count     int      `json:"count"`
	Truncated bool     `json:"truncated,omitempty"`
}

// ToolProjectXML exports the project as CDISC ODM XML, optionally narrowed by XPath.
func ToolProjectXML(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProjectXMLInput) (*sdkmcp.CallToolResult, ProjectXMLOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProjectXMLInput) (*sdkmcp.CallToolResult, ProjectXMLOutput, error) {
		doc, err := d.Client.ProjectXML(ctx, opts(input.RequestOptions))
		if err != nil {
			return nil, ProjectXMLOutput{}, err
		}
		if input.XPath == "" {
			return nil, ProjectXMLOutput{XML: doc, Count: 1}, nil
		}

		res, err := query.XPath(doc, input.XPath, d.limit(input.MaxResults))
		if err != nil {
			return nil, ProjectXMLOutput{}, ErrInvalidInput(err.Error())
		}
		return nil, ProjectXMLOutput{
			Matches:   res.Values,
			Count:     res.Count,
			Truncated: res.Truncated,
		}, nil
	}
}

// ListInput is the input shared by the list-shaped exports.
type ListInput struct {
	MaxResults     int               `json:"max_results,omitempty" jsonschema:"Max items to return (default from DEFAULT_QUERY_LIMIT)"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim"`
}

// ListOutput is the output shared by the list-shaped exports.
type ListOutput struct {
	Items     []client.Record `json:"items,omitempty"`
	Count     int             `json:"count"`
	Total     int             `json:"total"`
	Truncated bool            `json:"truncated,omitempty"`
}

type listExport func(ctx context.Context, opts client.RequestOptions) ([]client.Record, error)

// ToolList wraps an export that returns a list of objects.
func ToolList(d *Deps, export listExport) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListInput) (*sdkmcp.CallToolResult, ListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListInput) (*sdkmcp.CallToolResult, ListOutput, error) {
		items, err := export(ctx, opts(input.RequestOptions))
		if err != nil {
			return nil, ListOutput{}, err
		}
		total := len(items)
		items, truncated := page(items, d.limit(input.MaxResults))
		return nil, ListOutput{
			Items:     items,
			Count:     len(items),
			Total:     total,
			Truncated: truncated,
		}, nil
	}
}

// FieldsOutput is the output of redcap_fields.
type FieldsOutput struct {
	Fields []string `json:"fields,omitempty"`
	Count  int      `json:"count"`
}

// ToolFields lists the field names of the data dictionary in order.
func ToolFields(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProjectInput) (*sdkmcp.CallToolResult, FieldsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProjectInput) (*sdkmcp.CallToolResult, FieldsOutput, error) {
		fields, err := d.Client.Fields(ctx, opts(input.RequestOptions))
		if err != nil {
			return nil, FieldsOutput{}, err
		}
		return nil, FieldsOutput{Fields: fields, Count: len(fields)}, nil
	}
}

// MetadataInput is the input for redcap_metadata.
type MetadataInput struct {
	Forms          []string          `json:"forms,omitempty" jsonschema:"Only fields of these instruments"`
	RawLabels      bool              `json:"raw_labels,omitempty" jsonschema:"Keep rich text HTML in field_label, section_header and field_note"`
	MaxResults     int               `json:"max_results,omitempty" jsonschema:"Max fields to return (default from DEFAULT_QUERY_LIMIT)"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim"`
}

// ToolMetadata exports the data dictionary. Rich text labels are reduced to
// plain text unless raw_labels is set.
func ToolMetadata(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input MetadataInput) (*sdkmcp.CallToolResult, ListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input MetadataInput) (*sdkmcp.CallToolResult, ListOutput, error) {
		params := client.RequestOptions{}
		for i, form := range splitList(input.Forms) {
			params[fmt.Sprintf("forms[%d]", i)] = form
		}
		for k, v := range input.RequestOptions {
			params[k] = v
		}

		fields, err := d.Client.Metadata(ctx, opts(params))
		if err != nil {
			return nil, ListOutput{}, err
		}
		if !input.RawLabels {
			fields = richtext.PlainLabels(fields)
		}
		total := len(fields)
		fields, truncated := page(fields, d.limit(input.MaxResults))
		return nil, ListOutput{Items: fields, Count: len(fields), Total: total, Truncated: truncated}, nil
	}
}
