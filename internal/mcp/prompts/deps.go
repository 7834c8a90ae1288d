// Package prompts contains the MCP prompts that guide work on a REDCap project.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	Host         string
	CacheEnabled bool
	DefaultLimit int
	FileMaxBytes int
}
