package tools

import (
	"github.com/usestring/redcap-mcp/internal/config"
	"github.com/usestring/redcap-mcp/internal/query"
	"github.com/usestring/redcap-mcp/pkg/client"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Client *client.Client
	Config *config.Config
	Query  *query.Engine
}

// NewDeps builds tool dependencies around c. A nil cfg falls back to defaults.
func NewDeps(c *client.Client, cfg *config.Config) *Deps {
	if cfg == nil {
		cfg = &config.Config{
			DefaultQueryLimit: config.DefaultQueryLimitValue,
			MaxQueryLimit:     config.MaxQueryLimitValue,
			FileMaxBytes:      config.DefaultFileMaxBytes,
		}
	}
	return &Deps{Client: c, Config: cfg, Query: query.NewEngine()}
}

// limit clamps a requested result count to the configured bounds.
func (d *Deps) limit(requested int) int {
	n := requested
	if n <= 0 {
		n = d.Config.DefaultQueryLimit
	}
	if d.Config.MaxQueryLimit > 0 && n > d.Config.MaxQueryLimit {
		n = d.Config.MaxQueryLimit
	}
	return n
}
