// Package tools contains the MCP tools that expose a REDCap project.
package tools

import (
	"encoding/json"
	"strings"

	"github.com/usestring/redcap-mcp/pkg/client"
)

// MIME type constants.
const (
	MimeJSON = "application/json"
	MimeXML  = "application/xml"
)

// splitList accepts ids given either as a list or as one comma-separated string.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// toAny converts v to plain JSON values so it can sit in an untyped output field.
func toAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// page truncates records to n and reports whether anything was cut.
func page(records []client.Record, n int) ([]client.Record, bool) {
	if n > 0 && len(records) > n {
		return records[:n], true
	}
	return records, false
}

func opts(m map[string]string) client.RequestOptions {
	if len(m) == 0 {
		return nil
	}
	return client.RequestOptions(m)
}
