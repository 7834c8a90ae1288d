package client

import (
	"log/slog"
	"net/url"
	"sort"
	"strconv"
)

// RecordIDField is the identifier field added to every field-restricted records export.
const RecordIDField = "record_id"

// Content discriminators for the "content" payload key.
const (
	ContentProject              = "project"
	ContentProjectXML           = "project_xml"
	ContentUser                 = "user"
	ContentMetadata             = "metadata"
	ContentInstrument           = "instrument"
	ContentFormEventMapping     = "formEventMapping"
	ContentExportFieldNames     = "exportFieldNames"
	ContentRecord               = "record"
	ContentSurveyLink           = "surveyLink"
	ContentParticipantList      = "participantList"
	ContentArm                  = "arm"
	ContentEvent                = "event"
	ContentRepeatingFormsEvents = "repeatingFormsEvents"
	ContentFile                 = "file"
	ContentReport               = "report"
	ContentVersion              = "version"
)

// Payload is one flat REDCap API call. Array parameters are already
// flattened into indexed keys such as "records[0]".
type Payload map[string]string

// RequestOptions are caller-supplied payload keys merged last into a payload.
// They override anything the operation set, which makes every API parameter reachable.
type RequestOptions map[string]string

// BuildOptions are the structured parts of a payload.
type BuildOptions struct {
	Action  string
	Records []string
	Fields  []string
	Events  []string
	Forms   []string
	// Filter is a REDCap logic expression sent as filterLogic.
	Filter string
}

// BuildPayload assembles the canonical payload for content.
// token, format and content are always present; opts are merged last.
func BuildPayload(cfg *Config, content string, b BuildOptions, opts RequestOptions) Payload {
	p := Payload{
		"token":   cfg.Token,
		"format":  string(cfg.Format),
		"content": content,
	}
	if b.Action != "" {
		p["action"] = b.Action
	}
	p.flatten("records", b.Records)
	p.flatten("fields", b.Fields)
	p.flatten("events", b.Events)
	p.flatten("forms", b.Forms)
	if b.Filter != "" {
		p["filterLogic"] = b.Filter
	}
	for k, v := range opts {
		p[k] = v
	}
	return p
}

func (p Payload) flatten(key string, values []string) {
	for i, v := range values {
		p[key+"["+strconv.Itoa(i)+"]"] = v
	}
}

// Values returns the payload as form values.
func (p Payload) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}

// Key returns a canonical encoding of the payload. Equal payloads
// produce equal keys regardless of insertion order.
func (p Payload) Key() string {
	return p.Values().Encode()
}

// Content returns the content discriminator.
func (p Payload) Content() string {
	return p["content"]
}

// LogValue implements slog.LogValuer. The token and record data are redacted.
func (p Payload) LogValue() slog.Value {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		v := p[k]
		switch k {
		case "token":
			v = "[REDACTED]"
		case "data":
			v = "[" + strconv.Itoa(len(v)) + " bytes]"
		}
		attrs = append(attrs, slog.String(k, v))
	}
	return slog.GroupValue(attrs...)
}

// withRecordID returns fields with RecordIDField included exactly once.
// An empty list stays empty: REDCap then exports every field.
func withRecordID(fields []string) []string {
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(fields)+1)
	seen := make(map[string]bool, len(fields)+1)
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	if !seen[RecordIDField] {
		out = append(out, RecordIDField)
	}
	return out
}
