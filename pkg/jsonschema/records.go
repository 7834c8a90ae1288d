package jsonschema

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/invopop/jsonschema"
)

// FieldStat summarizes one export column across records.
type FieldStat struct {
	Field         string   `json:"field"`
	Type          string   `json:"type"`
	Filled        float64  `json:"filled"` // fraction of records with a non-blank value
	DistinctCount int      `json:"distinct_count"`
	Examples      []any    `json:"examples,omitempty"`
	Format        string   `json:"format,omitempty"` // integer, number, date, datetime, email, enum
	EnumValues    []string `json:"enum_values,omitempty"`
}

// RecordSchema is the schema inferred for a flat record export.
type RecordSchema struct {
	Schema      *jsonschema.Schema `json:"schema"`
	RecordCount int                `json:"record_count"`
	Fields      []FieldStat        `json:"fields"`
}

const (
	maxExamples           = 3
	minRecordsForEnum     = 5
	maxEnumDistinctValues = 10
)

var (
	integerRegex  = regexp.MustCompile(`^-?\d+$`)
	numberRegex   = regexp.MustCompile(`^-?\d+\.\d+$`)
	dateRegex     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	datetimeRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}(:\d{2})?$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// InferRecords infers an array-of-objects schema from exported records.
// REDCap sends every value as text, so string columns are further classified
// by the shape of their non-blank values. A column is required when every
// record has a non-blank value for it.
func InferRecords(records []map[string]any) *RecordSchema {
	out := &RecordSchema{RecordCount: len(records), Fields: []FieldStat{}}
	items := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	out.Schema = &jsonschema.Schema{
		Version: "https://json-schema.org/draft/2020-12/schema",
		Type:    "array",
		Items:   items,
	}
	if len(records) == 0 {
		return out
	}

	values := make(map[string][]any)
	var order []string
	for _, rec := range records {
		for _, k := range sortedKeys(rec) {
			if _, ok := values[k]; !ok {
				order = append(order, k)
			}
			values[k] = append(values[k], rec[k])
		}
	}
	sort.Strings(order)

	var required []string
	for _, field := range order {
		stat, prop := column(field, values[field], len(records))
		items.Properties.Set(field, prop)
		out.Fields = append(out.Fields, stat)
		if stat.Filled == 1 {
			required = append(required, field)
		}
	}
	if len(required) > 0 {
		items.Required = required
	}
	return out
}

func column(field string, vals []any, total int) (FieldStat, *jsonschema.Schema) {
	stat := FieldStat{Field: field}
	var (
		filled  int
		strs    []string
		schemas []*jsonschema.Schema
		allText = true
	)
	distinct := make(map[string]bool)

	for _, v := range vals {
		if isBlank(v) {
			continue
		}
		filled++
		schemas = append(schemas, InferValue(v))
		key := fmt.Sprint(v)
		if !distinct[key] {
			distinct[key] = true
			if len(stat.Examples) < maxExamples {
				stat.Examples = append(stat.Examples, v)
			}
		}
		if s, ok := v.(string); ok {
			strs = append(strs, s)
		} else {
			allText = false
		}
	}

	stat.Filled = float64(filled) / float64(total)
	stat.DistinctCount = len(distinct)

	if filled == 0 {
		stat.Type = "string"
		return stat, &jsonschema.Schema{Type: "string"}
	}

	prop := merge(schemas)
	stat.Type = prop.Type
	if stat.Type == "" {
		stat.Type = "mixed"
	}
	if allText {
		stat.Format = textFormat(strs)
		switch stat.Format {
		case "integer":
			prop.Pattern = `^-?\d+$`
		case "number":
			prop.Pattern = `^-?\d+(\.\d+)?$`
		case "date":
			prop.Format = "date"
		case "datetime":
			prop.Pattern = `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}(:\d{2})?$`
		case "email":
			prop.Format = "email"
		}
		if stat.Format == "" && total >= minRecordsForEnum && len(distinct) <= maxEnumDistinctValues && len(distinct) < filled {
			stat.Format = "enum"
			for k := range distinct {
				stat.EnumValues = append(stat.EnumValues, k)
			}
			sort.Strings(stat.EnumValues)
			enum := []any{""}
			for _, v := range stat.EnumValues {
				enum = append(enum, v)
			}
			prop.Enum = enum
		}
	}
	return stat, prop
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// textFormat classifies a column whose values are all non-blank strings.
func textFormat(vals []string) string {
	checks := []struct {
		name string
		re   *regexp.Regexp
	}{
		{"integer", integerRegex},
		{"date", dateRegex},
		{"datetime", datetimeRegex},
		{"email", emailRegex},
	}
	for _, c := range checks {
		if allMatch(vals, c.re) {
			return c.name
		}
	}
	if allMatch(vals, integerRegex, numberRegex) {
		return "number"
	}
	return ""
}

func allMatch(vals []string, res ...*regexp.Regexp) bool {
	for _, v := range vals {
		ok := false
		for _, re := range res {
			if re.MatchString(v) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
