package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/usestring/redcap-mcp/pkg/client"
)

// Columns REDCap accepts in a flat import besides dictionary fields.
var reservedColumns = map[string]any{
	"redcap_event_name":        map[string]any{"type": "string"},
	"redcap_repeat_instrument": map[string]any{"type": "string"},
	"redcap_repeat_instance":   map[string]any{"type": []any{"string", "integer"}},
	"redcap_data_access_group": map[string]any{"type": "string"},
}

var validationPatterns = map[string]string{
	"integer":                 `-?\d+`,
	"date_ymd":                `\d{4}-\d{2}-\d{2}`,
	"date_mdy":                `\d{4}-\d{2}-\d{2}`,
	"date_dmy":                `\d{4}-\d{2}-\d{2}`,
	"datetime_ymd":            `\d{4}-\d{2}-\d{2} \d{2}:\d{2}`,
	"datetime_mdy":            `\d{4}-\d{2}-\d{2} \d{2}:\d{2}`,
	"datetime_dmy":            `\d{4}-\d{2}-\d{2} \d{2}:\d{2}`,
	"datetime_seconds_ymd":    `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`,
	"datetime_seconds_mdy":    `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`,
	"datetime_seconds_dmy":    `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`,
	"time":                    `\d{2}:\d{2}`,
	"time_mm_ss":              `\d{2}:\d{2}`,
	"email":                   `[^@\s]+@[^@\s]+\.[^@\s]+`,
	"zipcode":                 `\d{5}(-\d{4})?`,
	"alpha_only":              `[A-Za-z]+`,
	"number":                  `-?\d+(\.\d+)?`,
	"number_comma_decimal":    `-?\d+(,\d+)?`,
	"integer_comma_separated": `-?\d{1,3}(,\d{3})*`,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9_]`)

// FromMetadata builds a validator for flat record imports from a project's
// data dictionary, as returned by the metadata export. The first field is
// taken as the record identifier and required on every record.
func FromMetadata(fields []client.Record) (*Validator, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty data dictionary")
	}

	props := make(map[string]any, len(fields)+len(reservedColumns))
	for name, s := range reservedColumns {
		props[name] = s
	}

	forms := make(map[string]bool)
	for _, f := range fields {
		name := f.String("field_name")
		if name == "" {
			continue
		}
		if form := f.String("form_name"); form != "" {
			forms[form] = true
		}

		switch f.String("field_type") {
		case "descriptive":
		case "checkbox":
			for _, code := range choiceCodes(f.String("select_choices_or_calculations")) {
				props[checkboxColumn(name, code)] = enumSchema("0", "1")
			}
		case "yesno", "truefalse":
			props[name] = enumSchema("0", "1")
		case "dropdown", "radio":
			props[name] = enumSchema(choiceCodes(f.String("select_choices_or_calculations"))...)
		case "slider":
			props[name] = patternSchema(validationPatterns["integer"])
		case "text":
			props[name] = textSchema(f.String("text_validation_type_or_show_slider_number"))
		default:
			props[name] = map[string]any{"type": []any{"string", "number"}}
		}
	}
	for form := range forms {
		props[form+"_complete"] = enumSchema("0", "1", "2")
	}

	idField := fields[0].String("field_name")
	doc := map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "array",
		"items": map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             []any{idField},
			"additionalProperties": false,
		},
	}
	return compile(doc)
}

// choiceCodes extracts the raw codes from "1, Yes | 2, No".
func choiceCodes(choices string) []string {
	var codes []string
	for _, choice := range strings.Split(choices, "|") {
		code, _, _ := strings.Cut(choice, ",")
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// checkboxColumn is the export column name for one checkbox option.
func checkboxColumn(field, code string) string {
	return field + "___" + nonAlnum.ReplaceAllString(strings.ToLower(code), "_")
}

// enumSchema accepts blank or one of codes, given as strings or numbers.
func enumSchema(codes ...string) map[string]any {
	values := []any{""}
	for _, c := range codes {
		values = append(values, c)
		if n, err := strconv.ParseFloat(c, 64); err == nil {
			values = append(values, n)
		}
	}
	return map[string]any{"enum": values}
}

func patternSchema(pattern string) map[string]any {
	return map[string]any{
		"type":    []any{"string", "number"},
		"pattern": "^(|" + pattern + ")$",
	}
}

func textSchema(validation string) map[string]any {
	if p, ok := validationPatterns[validation]; ok {
		return patternSchema(p)
	}
	if strings.HasPrefix(validation, "number_") {
		return patternSchema(`-?\d+([.,]\d+)?`)
	}
	return map[string]any{"type": []any{"string", "number"}}
}
