package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// SurveyLinkInput is the input for redcap_survey_link.
type SurveyLinkInput struct {
	Record         string            `json:"record" jsonschema:"Record id"`
	Instrument     string            `json:"instrument" jsonschema:"Instrument (form) name enabled as a survey"`
	Event          string            `json:"event,omitempty" jsonschema:"Unique event name (longitudinal projects)"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim"`
}

// SurveyLinkOutput is the output of redcap_survey_link.
type SurveyLinkOutput struct {
	Link string `json:"link"`
}

// ToolSurveyLink returns the unique survey link of a record.
func ToolSurveyLink(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SurveyLinkInput) (*sdkmcp.CallToolResult, SurveyLinkOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SurveyLinkInput) (*sdkmcp.CallToolResult, SurveyLinkOutput, error) {
		if input.Record == "" || input.Instrument == "" {
			return nil, SurveyLinkOutput{}, ErrInvalidInput("record and instrument are required")
		}
		link, err := d.Client.SurveyLink(ctx, input.Record, input.Instrument, input.Event, opts(input.RequestOptions))
		if err != nil {
			return nil, SurveyLinkOutput{}, err
		}
		return nil, SurveyLinkOutput{Link: link}, nil
	}
}

// ParticipantListInput is the input for redcap_participant_list.
type ParticipantListInput struct {
	Instrument     string            `json:"instrument" jsonschema:"Instrument (form) name enabled as a survey"`
	Event          string            `json:"event,omitempty" jsonschema:"Unique event name (longitudinal projects)"`
	MaxResults     int               `json:"max_results,omitempty" jsonschema:"Max participants to return"`
	RequestOptions map[string]string `json:"request_options,omitempty" jsonschema:"Extra REDCap API parameters sent verbatim"`
}

// ToolParticipantList exports the survey participant list of an instrument.
func ToolParticipantList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ParticipantListInput) (*sdkmcp.CallToolResult, ListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ParticipantListInput) (*sdkmcp.CallToolResult, ListOutput, error) {
		if input.Instrument == "" {
			return nil, ListOutput{}, ErrInvalidInput("instrument is required")
		}
		items, err := d.Client.ParticipantList(ctx, input.Instrument, input.Event, opts(input.RequestOptions))
		if err != nil {
			return nil, ListOutput{}, err
		}
		total := len(items)
		items, truncated := page(items, d.limit(input.MaxResults))
		return nil, ListOutput{Items: items, Count: len(items), Total: total, Truncated: truncated}, nil
	}
}
