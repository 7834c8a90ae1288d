package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/redcap-mcp/pkg/client"
	"github.com/usestring/redcap-mcp/pkg/contenttype"
)

// FileInput is the input for redcap_file.
type FileInput struct {
	Record         string            `json:"record" jsonschema:"Record id"`
	Field          string            `json:"field" jsonschema:"File upload field name"`
	Event          string            `json:"event,omitempty" jsonschema:"Unique event name (longitudinal projects)"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim, e.g. {\"repeat_instance\": \"2\"}"`
}

// FileOutput is the output of redcap_file.
type FileOutput struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
	Encoding    string `json:"encoding"` // text or base64
	Content     string `json:"content"`
	Truncated   bool   `json:"truncated,omitempty"`
}

// ToolFile downloads the file stored in a file upload field. Text files are
// returned inline, anything else base64 encoded, both capped at FILE_MAX_BYTES.
func ToolFile(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input FileInput) (*sdkmcp.CallToolResult, FileOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input FileInput) (*sdkmcp.CallToolResult, FileOutput, error) {
		if input.Record == "" || input.Field == "" {
			return nil, FileOutput{}, ErrInvalidInput("record and field are required")
		}

		fr, err := d.Client.File(ctx, input.Record, input.Field, input.Event, opts(input.RequestOptions))
		if err != nil {
			return nil, FileOutput{}, err
		}
		defer fr.Body.Close()

		maxBytes := d.Config.FileMaxBytes
		if maxBytes <= 0 {
			maxBytes = 1 << 20
		}
		data, err := io.ReadAll(io.LimitReader(fr.Body, int64(maxBytes)+1))
		if err != nil {
			return nil, FileOutput{}, &client.TransportError{StatusCode: fr.StatusCode, Message: "reading file", Cause: err}
		}

		// file downloads are returned uninterpreted, so REDCap errors arrive here
		if fr.StatusCode < 200 || fr.StatusCode > 299 {
			return nil, FileOutput{}, &client.TransportError{
				StatusCode: fr.StatusCode,
				Message:    fmt.Sprintf("%s: %s", http.StatusText(fr.StatusCode), firstBytes(data, 256)),
			}
		}

		out := FileOutput{Filename: fr.Filename, ContentType: fr.ContentType}
		if out.ContentType == "" {
			out.ContentType = contenttype.FromFilename(fr.Filename)
		}
		if len(data) > maxBytes {
			data = data[:maxBytes]
			out.Truncated = true
		}
		out.Size = len(data)
		if contenttype.IsText(out.ContentType, data) {
			out.Encoding = "text"
			out.Content = string(data)
		} else {
			out.Encoding = "base64"
			out.Content = base64.StdEncoding.EncodeToString(data)
		}
		return nil, out, nil
	}
}

func firstBytes(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
