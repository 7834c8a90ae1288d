package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/redcap-mcp/pkg/client"
)

func TestCheckOutputSchema_panicsOnNilSlice(t *testing.T) {
	type BadOutput struct {
		Records []client.Record `json:"records"`
	}
	assert.Panics(t, func() {
		CheckOutputSchema[BadOutput]("bad_records")
	})
}

func TestCheckOutputSchema_panicsOnNilMap(t *testing.T) {
	type BadOutput struct {
		Project client.Record `json:"project"`
	}
	assert.Panics(t, func() {
		CheckOutputSchema[BadOutput]("bad_project")
	})
}

func TestCheckOutputSchema_okWithOmitempty(t *testing.T) {
	type GoodOutput struct {
		Records []client.Record `json:"records,omitempty"`
		Count   int             `json:"count"`
	}
	assert.NotPanics(t, func() {
		CheckOutputSchema[GoodOutput]("good_records")
	})
}

func TestCheckOutputSchema_okWithAny(t *testing.T) {
	assert.NotPanics(t, func() {
		CheckOutputSchema[any]("any_tool")
	})
}

func TestCheckOutputSchema_panicsOnRawMessage(t *testing.T) {
	type Inner struct {
		Schema json.RawMessage `json:"schema,omitempty"`
	}
	type BadOutput struct {
		Nested Inner `json:"nested"`
	}
	assert.Panics(t, func() {
		CheckOutputSchema[BadOutput]("nested_raw_message")
	})
}

func TestCheckOutputSchema_registeredOutputs(t *testing.T) {
	assert.NotPanics(t, func() {
		CheckOutputSchema[ProjectOutput]("redcap_project")
		CheckOutputSchema[ProjectXMLOutput]("redcap_project_xml")
		CheckOutputSchema[ListOutput]("redcap_metadata")
		CheckOutputSchema[FieldsOutput]("redcap_fields")
		CheckOutputSchema[RecordsOutput]("redcap_records")
		CheckOutputSchema[RecordsSchemaOutput]("redcap_records_schema")
		CheckOutputSchema[MaxIDOutput]("redcap_max_id")
		CheckOutputSchema[SurveyLinkOutput]("redcap_survey_link")
		CheckOutputSchema[FileOutput]("redcap_file")
		CheckOutputSchema[CreateOutput]("redcap_create_records")
		CheckOutputSchema[UpdateOutput]("redcap_update_records")
		CheckOutputSchema[DeleteOutput]("redcap_delete_records")
	})
}

func TestWrapHandler_CodesErrors(t *testing.T) {
	h := wrapHandler("redcap_test", func(ctx context.Context, req *sdkmcp.CallToolRequest, in ProjectInput) (*sdkmcp.CallToolResult, MaxIDOutput, error) {
		return nil, MaxIDOutput{MaxID: 9}, &client.TransportError{StatusCode: 403, Message: "You do not have permissions to use the API"}
	})

	_, out, err := h(context.Background(), nil, ProjectInput{})
	require.Error(t, err)
	assert.Zero(t, out.MaxID)

	var coded *CodedError
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, ErrCodeREDCap, coded.Code)
	assert.Equal(t, "You do not have permissions to use the API", coded.Message)
}

func TestWrapREDCapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"configuration", &client.ConfigurationError{Message: "no configuration", Cause: client.ErrNotConfigured}, ErrCodeConfig},
		{"not found", &client.TransportError{StatusCode: 404, Message: "not found"}, ErrCodeNotFound},
		{"api", &client.TransportError{StatusCode: 400, Message: "invalid field"}, ErrCodeREDCap},
		{"deadline", &client.TransportError{Cause: context.DeadlineExceeded}, ErrCodeTimeout},
		{"parse", &client.ResponseParseError{Content: "record", Cause: errors.New("bad json")}, ErrCodeParse},
		{"wrapped parse", errFmt(&client.ResponseParseError{Content: "metadata", Cause: errors.New("x")}), ErrCodeParse},
		{"other", errors.New("boom"), ErrCodeREDCap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var coded *CodedError
			require.True(t, errors.As(WrapREDCapError(tt.err), &coded))
			assert.Equal(t, tt.code, coded.Code)
		})
	}

	assert.Nil(t, WrapREDCapError(nil))

	in := ErrInvalidInput("bad")
	assert.Same(t, in, WrapREDCapError(in))
}

func errFmt(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "exporting: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }
