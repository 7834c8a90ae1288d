package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Record is one decoded JSON object from a REDCap export.
type Record map[string]any

// String returns the value of key formatted as a string, or "" if absent.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// RecordsQuery selects what a records export returns. Empty fields mean all.
type RecordsQuery struct {
	Records []string
	Fields  []string
	Events  []string
	Forms   []string
	Filter  string
}

// exportList runs a JSON export whose response is an array of objects.
func (c *Client) exportList(ctx context.Context, content string, b BuildOptions, opts RequestOptions) ([]Record, error) {
	p, err := c.payload(content, b, opts)
	if err != nil {
		return nil, err
	}
	var out []Record
	if _, err := c.Post(ctx, p, &out); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", content, err)
	}
	return out, nil
}

// exportRaw runs an export whose response is plain text.
func (c *Client) exportRaw(ctx context.Context, content string, b BuildOptions, opts RequestOptions) (string, error) {
	p, err := c.payload(content, b, opts)
	if err != nil {
		return "", err
	}
	s, err := c.PostRaw(ctx, p)
	if err != nil {
		return "", fmt.Errorf("exporting %s: %w", content, err)
	}
	return s, nil
}

// Project exports the project settings.
func (c *Client) Project(ctx context.Context, opts RequestOptions) (Record, error) {
	p, err := c.payload(ContentProject, BuildOptions{}, opts)
	if err != nil {
		return nil, err
	}
	var out Record
	if _, err := c.Post(ctx, p, &out); err != nil {
		return nil, fmt.Errorf("exporting project: %w", err)
	}
	return out, nil
}

// Users exports the project's users and their rights.
func (c *Client) Users(ctx context.Context, opts RequestOptions) ([]Record, error) {
	return c.exportList(ctx, ContentUser, BuildOptions{}, opts)
}

// ProjectXML exports the project as CDISC ODM XML.
func (c *Client) ProjectXML(ctx context.Context, opts RequestOptions) (string, error) {
	return c.exportRaw(ctx, ContentProjectXML, BuildOptions{}, opts)
}

// Metadata exports the data dictionary. It always covers every field.
func (c *Client) Metadata(ctx context.Context, opts RequestOptions) ([]Record, error) {
	return c.exportList(ctx, ContentMetadata, BuildOptions{Fields: []string{}}, opts)
}

// Instruments exports the data collection instruments.
func (c *Client) Instruments(ctx context.Context, opts RequestOptions) ([]Record, error) {
	return c.exportList(ctx, ContentInstrument, BuildOptions{}, opts)
}

// FormEventMapping exports the instrument-event mapping of a longitudinal project.
func (c *Client) FormEventMapping(ctx context.Context, opts RequestOptions) ([]Record, error) {
	return c.exportList(ctx, ContentFormEventMapping, BuildOptions{}, opts)
}

// ExportFieldNames exports the export/import names of every field.
func (c *Client) ExportFieldNames(ctx context.Context, opts RequestOptions) ([]Record, error) {
	return c.exportList(ctx, ContentExportFieldNames, BuildOptions{}, opts)
}

// Records exports records. When q.Fields is non-empty, record_id is always
// requested as well so every row stays identifiable.
func (c *Client) Records(ctx context.Context, q RecordsQuery, opts RequestOptions) ([]Record, error) {
	return c.exportList(ctx, ContentRecord, BuildOptions{
		Records: q.Records,
		Fields:  withRecordID(q.Fields),
		Events:  q.Events,
		Forms:   q.Forms,
		Filter:  q.Filter,
	}, opts)
}

// Report exports the records of a saved report.
func (c *Client) Report(ctx context.Context, reportID string, opts RequestOptions) ([]Record, error) {
	return c.exportList(ctx, ContentReport, BuildOptions{}, merge(RequestOptions{"report_id": reportID}, opts))
}

// SurveyLink returns the survey URL of instrument for record. event is
// required by longitudinal projects and ignored when empty.
func (c *Client) SurveyLink(ctx context.Context, record, instrument, event string, opts RequestOptions) (string, error) {
	base := RequestOptions{"record": record, "instrument": instrument}
	if event != "" {
		base["event"] = event
	}
	return c.exportRaw(ctx, ContentSurveyLink, BuildOptions{}, merge(base, opts))
}

// ParticipantList exports the survey participants of instrument.
func (c *Client) ParticipantList(ctx context.Context, instrument, event string, opts RequestOptions) ([]Record, error) {
	base := RequestOptions{"instrument": instrument}
	if event != "" {
		base["event"] = event
	}
	return c.exportList(ctx, ContentParticipantList, BuildOptions{}, merge(base, opts))
}

// Arms exports the arms of a longitudinal project.
func (c *Client) Arms(ctx context.Context, opts RequestOptions) ([]Record, error) {
	return c.exportList(ctx, ContentArm, BuildOptions{}, opts)
}

// Events exports the events of a longitudinal project.
func (c *Client) Events(ctx context.Context, opts RequestOptions) ([]Record, error) {
	return c.exportList(ctx, ContentEvent, BuildOptions{}, opts)
}

// RepeatingFormsEvents exports the repeating instrument and event settings.
func (c *Client) RepeatingFormsEvents(ctx context.Context, opts RequestOptions) ([]Record, error) {
	return c.exportList(ctx, ContentRepeatingFormsEvents, BuildOptions{}, opts)
}

// Version returns the REDCap server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	s, err := c.exportRaw(ctx, ContentVersion, BuildOptions{}, nil)
	return strings.TrimSpace(s), err
}

// File downloads the file stored in a file-upload field. The caller must
// close the returned body.
func (c *Client) File(ctx context.Context, record, field, event string, opts RequestOptions) (*FileResponse, error) {
	base := RequestOptions{"record": record, "field": field}
	if event != "" {
		base["event"] = event
	}
	p, err := c.payload(ContentFile, BuildOptions{Action: "export"}, merge(base, opts))
	if err != nil {
		return nil, err
	}
	fr, err := c.PostFile(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("exporting file %s of record %s: %w", field, record, err)
	}
	return fr, nil
}

// MaxID returns the highest numeric record_id, or 0 when there are no
// records or none of the ids is numeric.
func (c *Client) MaxID(ctx context.Context, opts RequestOptions) (int, error) {
	records, err := c.Records(ctx, RecordsQuery{Fields: []string{RecordIDField}}, opts)
	if err != nil {
		return 0, err
	}
	maxID := 0
	for _, r := range records {
		id, err := strconv.ParseFloat(strings.TrimSpace(r.String(RecordIDField)), 64)
		if err != nil {
			continue
		}
		if int(id) > maxID {
			maxID = int(id)
		}
	}
	return maxID, nil
}

// Fields returns the name of every field in the data dictionary, in order.
func (c *Client) Fields(ctx context.Context, opts RequestOptions) ([]string, error) {
	metadata, err := c.Metadata(ctx, opts)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(metadata))
	for _, f := range metadata {
		names = append(names, f.String("field_name"))
	}
	return names, nil
}

// merge returns base overlaid with opts.
func merge(base, opts RequestOptions) RequestOptions {
	for k, v := range opts {
		base[k] = v
	}
	return base
}
