package mcpsrv

import (
	"github.com/usestring/redcap-mcp/internal/config"
	"github.com/usestring/redcap-mcp/internal/query"
	"github.com/usestring/redcap-mcp/pkg/client"
)

// Deps contains the dependencies available to custom tools: the same REDCap
// client, configuration and jq engine the builtin tools use.
type Deps struct {
	Client *client.Client
	Config *config.Config
	Query  *query.Engine
}
