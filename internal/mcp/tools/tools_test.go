package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/redcap-mcp/internal/config"
	"github.com/usestring/redcap-mcp/pkg/client"
)

const dictionaryJSON = `[
	{"field_name": "record_id", "form_name": "demographics", "field_type": "text"},
	{"field_name": "age", "form_name": "demographics", "field_type": "text", "text_validation_type_or_show_slider_number": "integer"},
	{"field_name": "sex", "form_name": "demographics", "field_type": "radio", "field_label": "<p>Sex at <b>birth</b></p>", "select_choices_or_calculations": "0, Female | 1, Male"},
	{"field_name": "consent", "form_name": "consent", "field_type": "file"}
]`

const recordsJSON = `[
	{"record_id": "1", "age": "34", "sex": "0"},
	{"record_id": "2", "age": "71", "sex": "1"},
	{"record_id": "3", "age": "66", "sex": "0"}
]`

const projectXML = `<?xml version="1.0" encoding="UTF-8"?>
<ODM><Study><GlobalVariables><StudyName>Heart Study</StudyName></GlobalVariables>
<MetaDataVersion><FormDef><ItemRef>record_id</ItemRef><ItemRef>age</ItemRef></FormDef></MetaDataVersion></Study></ODM>`

type fakeREDCap struct {
	mu    sync.Mutex
	forms []url.Values
}

func (f *fakeREDCap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.forms = append(f.forms, r.PostForm)
	f.mu.Unlock()

	form := r.PostForm
	switch form.Get("content") {
	case "project":
		w.Write([]byte(`{"project_id": 12, "project_title": "Heart Study", "is_longitudinal": 0}`))
	case "version":
		w.Write([]byte("14.5.2"))
	case "metadata":
		w.Write([]byte(dictionaryJSON))
	case "project_xml":
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(projectXML))
	case "report":
		w.Write([]byte(`[{"record_id": "1"}, {"record_id": "2"}]`))
	case "surveyLink":
		w.Write([]byte("https://redcap.test/surveys/?s=ABC"))
	case "participantList":
		w.Write([]byte(`[{"email": "a@b.org", "record": "1"}]`))
	case "file":
		switch form.Get("field") {
		case "missing":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "There is no file to download for this record"}`))
		case "notes":
			w.Header().Set("Content-Type", `text/plain; name="notes.txt"`)
			w.Write([]byte("signed on paper"))
		default:
			w.Header().Set("Content-Type", `application/pdf; name="consent.pdf"`)
			w.Write([]byte{'%', 'P', 'D', 'F', 0xff, 0x00})
		}
	case "record":
		switch {
		case form.Get("action") == "delete":
			w.Write([]byte("2"))
		case form.Get("returnContent") == "ids":
			w.Write([]byte(`["4"]`))
		case form.Get("returnContent") == "count":
			w.Write([]byte(`{"count": 1}`))
		default:
			w.Write([]byte(recordsJSON))
		}
	default:
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "The value of the parameter \"content\" is not valid"}`))
	}
}

func (f *fakeREDCap) last() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.forms) == 0 {
		return nil
	}
	return f.forms[len(f.forms)-1]
}

func (f *fakeREDCap) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.forms)
}

func newTestDeps(t *testing.T) (*Deps, *fakeREDCap) {
	t.Helper()
	fake := &fakeREDCap{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c := client.New(client.NewConfig(client.Options{Host: srv.URL, Token: "TOKEN"}))
	cfg := &config.Config{DefaultQueryLimit: 2, MaxQueryLimit: 10, FileMaxBytes: 1024}
	return NewDeps(c, cfg), fake
}

var ctx = context.Background()

func TestToolProject(t *testing.T) {
	d, _ := newTestDeps(t)

	_, out, err := ToolProject(d)(ctx, nil, ProjectInput{})
	require.NoError(t, err)
	assert.Equal(t, "Heart Study", out.Project.String("project_title"))
	assert.Equal(t, "14.5.2", out.ServerVersion)
}

func TestToolProjectXML(t *testing.T) {
	d, fake := newTestDeps(t)

	_, out, err := ToolProjectXML(d)(ctx, nil, ProjectXMLInput{RequestOptions: map[string]string{"returnMetadataOnly": "true"}})
	require.NoError(t, err)
	assert.Contains(t, out.XML, "<StudyName>Heart Study</StudyName>")
	assert.Equal(t, "true", fake.last().Get("returnMetadataOnly"))

	_, out, err = ToolProjectXML(d)(ctx, nil, ProjectXMLInput{XPath: "//ItemRef", MaxResults: 5})
	require.NoError(t, err)
	assert.Empty(t, out.XML)
	assert.Equal(t, []string{"record_id", "age"}, out.Matches)
	assert.Equal(t, 2, out.Count)

	_, _, err = ToolProjectXML(d)(ctx, nil, ProjectXMLInput{XPath: "//["})
	var coded *CodedError
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, ErrCodeInvalidInput, coded.Code)
}

func TestToolList_Truncates(t *testing.T) {
	d, fake := newTestDeps(t)

	_, out, err := ToolList(d, d.Client.Metadata)(ctx, nil, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, "metadata", fake.last().Get("content"))
	assert.Equal(t, 4, out.Total)
	assert.Equal(t, 2, out.Count)
	assert.True(t, out.Truncated)

	_, out, err = ToolList(d, d.Client.Metadata)(ctx, nil, ListInput{MaxResults: 100})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Count, "clamped to MaxQueryLimit but above total")
	assert.False(t, out.Truncated)
}

func TestToolList_REDCapError(t *testing.T) {
	d, _ := newTestDeps(t)

	_, _, err := ToolList(d, d.Client.Arms)(ctx, nil, ListInput{})
	var tErr *client.TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, http.StatusBadRequest, tErr.StatusCode)
	assert.Contains(t, WrapREDCapError(err).Error(), ErrCodeREDCap)
}

func TestToolMetadata(t *testing.T) {
	d, fake := newTestDeps(t)

	_, out, err := ToolMetadata(d)(ctx, nil, MetadataInput{Forms: []string{"demographics,consent"}, MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, "demographics", fake.last().Get("forms[0]"))
	assert.Equal(t, "consent", fake.last().Get("forms[1]"))
	require.Len(t, out.Items, 4)
	assert.Equal(t, "Sex at birth", out.Items[2]["field_label"])

	_, out, err = ToolMetadata(d)(ctx, nil, MetadataInput{RawLabels: true, MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, "<p>Sex at <b>birth</b></p>", out.Items[2]["field_label"])
	assert.Empty(t, fake.last().Get("forms[0]"))
}

func TestToolFields(t *testing.T) {
	d, _ := newTestDeps(t)

	_, out, err := ToolFields(d)(ctx, nil, ProjectInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"record_id", "age", "sex", "consent"}, out.Fields)
	assert.Equal(t, 4, out.Count)
}

func TestToolRecords_Plain(t *testing.T) {
	d, fake := newTestDeps(t)

	_, out, err := ToolRecords(d)(ctx, nil, RecordsInput{
		Records: []string{"1,2", "3"},
		Fields:  []string{"age"},
		Filter:  "[age] > 30",
	})
	require.NoError(t, err)

	form := fake.last()
	assert.Equal(t, "1", form.Get("records[0]"))
	assert.Equal(t, "3", form.Get("records[2]"))
	assert.Equal(t, "age", form.Get("fields[0]"))
	assert.Equal(t, "record_id", form.Get("fields[1]"))
	assert.Equal(t, "[age] > 30", form.Get("filterLogic"))

	assert.Equal(t, 3, out.Total)
	assert.Len(t, out.Records, 2)
	assert.True(t, out.Truncated)
	assert.NotEmpty(t, out.Hint)
}

func TestToolRecords_JQPerRecord(t *testing.T) {
	d, _ := newTestDeps(t)

	_, out, err := ToolRecords(d)(ctx, nil, RecordsInput{
		JQ:         `select((.age | tonumber) > 60) | .age`,
		MaxResults: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"71", "66"}, out.Values)
	assert.Equal(t, []string{"2", "3"}, out.MatchedRecords)
	assert.Empty(t, out.Records)
	assert.Equal(t, 3, out.Total)
}

func TestToolRecords_JQExportScope(t *testing.T) {
	d, _ := newTestDeps(t)

	_, out, err := ToolRecords(d)(ctx, nil, RecordsInput{JQ: "length", JQScope: "export"})
	require.NoError(t, err)
	assert.Equal(t, []any{3}, out.Values)
}

func TestToolRecords_InvalidInput(t *testing.T) {
	d, fake := newTestDeps(t)

	_, _, err := ToolRecords(d)(ctx, nil, RecordsInput{JQ: ".["})
	var coded *CodedError
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, ErrCodeInvalidInput, coded.Code)

	_, _, err = ToolRecords(d)(ctx, nil, RecordsInput{JQScope: "rows"})
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, 0, fake.count(), "invalid input must not reach REDCap")
}

func TestToolReport(t *testing.T) {
	d, fake := newTestDeps(t)

	_, _, err := ToolReport(d)(ctx, nil, ReportInput{})
	require.Error(t, err)

	_, out, err := ToolReport(d)(ctx, nil, ReportInput{ReportID: "44"})
	require.NoError(t, err)
	assert.Equal(t, "44", fake.last().Get("report_id"))
	assert.Equal(t, 2, out.Count)
}

func TestToolRecordsSchema(t *testing.T) {
	d, _ := newTestDeps(t)

	_, out, err := ToolRecordsSchema(d)(ctx, nil, RecordsSchemaInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.RecordCount)
	require.Len(t, out.Fields, 3)
	assert.Equal(t, "age", out.Fields[0].Field)
	assert.Equal(t, "integer", out.Fields[0].Format)

	schema, ok := out.Schema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", schema["type"])
}

func TestToolMaxID(t *testing.T) {
	d, fake := newTestDeps(t)

	_, out, err := ToolMaxID(d)(ctx, nil, ProjectInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.MaxID)
	assert.Equal(t, 4, out.NextID)
	assert.Equal(t, "record_id", fake.last().Get("fields[0]"))
}

func TestToolSurveyLink(t *testing.T) {
	d, fake := newTestDeps(t)

	_, _, err := ToolSurveyLink(d)(ctx, nil, SurveyLinkInput{Record: "1"})
	require.Error(t, err)
	assert.Equal(t, 0, fake.count())

	_, out, err := ToolSurveyLink(d)(ctx, nil, SurveyLinkInput{Record: "1", Instrument: "followup", Event: "month_1_arm_1"})
	require.NoError(t, err)
	assert.Equal(t, "https://redcap.test/surveys/?s=ABC", out.Link)
	assert.Equal(t, "followup", fake.last().Get("instrument"))
	assert.Equal(t, "month_1_arm_1", fake.last().Get("event"))
}

func TestToolParticipantList(t *testing.T) {
	d, _ := newTestDeps(t)

	_, out, err := ToolParticipantList(d)(ctx, nil, ParticipantListInput{Instrument: "followup"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
}

func TestToolFile_Binary(t *testing.T) {
	d, fake := newTestDeps(t)

	_, out, err := ToolFile(d)(ctx, nil, FileInput{Record: "1", Field: "consent"})
	require.NoError(t, err)
	assert.Equal(t, "export", fake.last().Get("action"))
	assert.Equal(t, "consent.pdf", out.Filename)
	assert.Equal(t, "base64", out.Encoding)
	assert.Equal(t, 6, out.Size)

	raw, err := base64.StdEncoding.DecodeString(out.Content)
	require.NoError(t, err)
	assert.Equal(t, []byte{'%', 'P', 'D', 'F', 0xff, 0x00}, raw)
}

func TestToolFile_Text(t *testing.T) {
	d, _ := newTestDeps(t)
	d.Config.FileMaxBytes = 6

	_, out, err := ToolFile(d)(ctx, nil, FileInput{Record: "1", Field: "notes"})
	require.NoError(t, err)
	assert.Equal(t, "text", out.Encoding)
	assert.Equal(t, "signed", out.Content)
	assert.True(t, out.Truncated)
}

func TestToolFile_Missing(t *testing.T) {
	d, _ := newTestDeps(t)

	_, _, err := ToolFile(d)(ctx, nil, FileInput{Record: "1", Field: "missing"})
	require.Error(t, err)

	var coded *CodedError
	require.True(t, errors.As(WrapREDCapError(err), &coded))
	assert.Equal(t, ErrCodeNotFound, coded.Code)
	assert.Contains(t, coded.Message, "no file to download")
}

func TestToolCreateRecords(t *testing.T) {
	d, fake := newTestDeps(t)

	_, out, err := ToolCreateRecords(d)(ctx, nil, ImportInput{
		Data: []client.Record{{"record_id": "4", "age": "50"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"4"}, out.IDs)
	assert.Equal(t, "ids", fake.last().Get("returnContent"))
	assert.JSONEq(t, `[{"record_id": "4", "age": "50"}]`, fake.last().Get("data"))
}

func TestToolCreateRecords_ValidationFailure(t *testing.T) {
	d, fake := newTestDeps(t)

	_, _, err := ToolCreateRecords(d)(ctx, nil, ImportInput{
		Data:     []client.Record{{"record_id": "4", "age": "fifty", "weight": "80"}},
		Validate: true,
	})
	var coded *CodedError
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, ErrCodeInvalidInput, coded.Code)
	assert.Contains(t, coded.Message, "/0/age")
	assert.Contains(t, coded.Message, "weight")

	// only the metadata export was sent
	assert.Equal(t, 1, fake.count())
	assert.Equal(t, "metadata", fake.last().Get("content"))
}

func TestToolUpdateRecords(t *testing.T) {
	d, fake := newTestDeps(t)

	_, _, err := ToolUpdateRecords(d)(ctx, nil, ImportInput{})
	require.Error(t, err)
	assert.Equal(t, 0, fake.count())

	_, out, err := ToolUpdateRecords(d)(ctx, nil, ImportInput{
		Data:     []client.Record{{"record_id": "1", "sex": "1"}},
		Validate: true,
	})
	require.NoError(t, err)
	assert.True(t, out.Updated)
	assert.Equal(t, "count", fake.last().Get("returnContent"))
	assert.Equal(t, "normal", fake.last().Get("overwriteBehavior"))
}

func TestToolDeleteRecords(t *testing.T) {
	d, fake := newTestDeps(t)

	_, out, err := ToolDeleteRecords(d)(ctx, nil, DeleteInput{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Deleted)
	assert.Equal(t, 0, fake.count())

	_, out, err = ToolDeleteRecords(d)(ctx, nil, DeleteInput{Records: []string{"1", "2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Deleted)
	assert.Equal(t, "delete", fake.last().Get("action"))
	assert.Equal(t, "2", fake.last().Get("records[1]"))
}

func TestToolProject_Unconfigured(t *testing.T) {
	d := NewDeps(client.New(nil), nil)

	_, _, err := ToolProject(d)(ctx, nil, ProjectInput{})
	var coded *CodedError
	require.True(t, errors.As(WrapREDCapError(err), &coded))
	assert.Equal(t, ErrCodeConfig, coded.Code)
}

func TestRegister(t *testing.T) {
	d, _ := newTestDeps(t)
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "redcap-mcp-test", Version: "0.0.0"}, nil)
	assert.NotPanics(t, func() { Register(srv, d) })
}
