package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/redcap-mcp/internal/mcp/tools"
)

// AddTool registers a tool with the server after checking that the zero value
// of Out passes the output schema the SDK infers. A nil slice or map field
// without omitempty marshals to null and would fail every call, so AddTool
// panics at registration naming the field to fix.
//
// Errors returned by h are mapped to the same coded errors the builtin
// redcap_* tools use.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
