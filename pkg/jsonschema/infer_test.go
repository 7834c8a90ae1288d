package jsonschema

import (
	"encoding/json"
	"testing"
)

func TestInferValue_PrimitiveTypes(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected string
	}{
		{"string", `"hello"`, "string"},
		{"integer", `42`, "integer"},
		{"whole float", `1.0`, "integer"},
		{"float", `3.14`, "number"},
		{"boolean", `true`, "boolean"},
		{"null", `null`, "null"},
		{"array", `[1, 2]`, "array"},
		{"object", `{"a": 1}`, "object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v any
			if err := json.Unmarshal([]byte(tt.json), &v); err != nil {
				t.Fatal(err)
			}
			if got := InferValue(v).Type; got != tt.expected {
				t.Errorf("expected type %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestInferValue_MixedArray(t *testing.T) {
	s := InferValue([]any{1.0, 2.5, "x"})
	if s.Items == nil || len(s.Items.AnyOf) != 2 {
		t.Fatalf("expected anyOf of number and string, got %+v", s.Items)
	}
	if s.Items.AnyOf[0].Type != "number" || s.Items.AnyOf[1].Type != "string" {
		t.Errorf("unexpected anyOf types: %q, %q", s.Items.AnyOf[0].Type, s.Items.AnyOf[1].Type)
	}
}

func TestInferValue_MergesObjects(t *testing.T) {
	s := InferValue([]any{
		map[string]any{"arm_num": 1.0, "name": "Arm 1"},
		map[string]any{"arm_num": 2.0},
	})
	if s.Items == nil || s.Items.Type != "object" {
		t.Fatalf("expected object items, got %+v", s.Items)
	}
	if _, ok := s.Items.Properties.Get("name"); !ok {
		t.Error("merged object should keep name")
	}
	if _, ok := s.Items.Properties.Get("arm_num"); !ok {
		t.Error("merged object should keep arm_num")
	}
}

func records(t *testing.T, raw string) []map[string]any {
	t.Helper()
	var out []map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestInferRecords_Formats(t *testing.T) {
	recs := records(t, `[
		{"record_id": "1", "age": "34", "weight": "70.5", "dob": "1990-01-31", "email": "a@b.org", "sex": "0", "visit": "2024-01-02 10:30", "notes": ""},
		{"record_id": "2", "age": "51", "weight": "82",   "dob": "1973-05-02", "email": "c@d.org", "sex": "1", "visit": "2024-01-03 09:00", "notes": "late"},
		{"record_id": "3", "age": "",   "weight": "64.2", "dob": "1995-12-11", "email": "e@f.org", "sex": "0", "visit": "2024-01-04 11:15", "notes": ""},
		{"record_id": "4", "age": "29", "weight": "58",   "dob": "2001-03-09", "email": "g@h.org", "sex": "1", "visit": "2024-01-05 08:45", "notes": ""},
		{"record_id": "5", "age": "62", "weight": "90.1", "dob": "1962-07-20", "email": "i@j.org", "sex": "0", "visit": "2024-01-06 14:00", "notes": ""}
	]`)

	got := InferRecords(recs)
	if got.RecordCount != 5 {
		t.Errorf("RecordCount = %d", got.RecordCount)
	}

	byField := make(map[string]FieldStat)
	for _, f := range got.Fields {
		byField[f.Field] = f
	}

	wantFormats := map[string]string{
		"record_id": "integer",
		"age":       "integer",
		"weight":    "number",
		"dob":       "date",
		"email":     "email",
		"visit":     "datetime",
		"sex":       "integer",
		"notes":     "",
	}
	for field, want := range wantFormats {
		if byField[field].Format != want {
			t.Errorf("%s format = %q, want %q", field, byField[field].Format, want)
		}
	}

	if byField["age"].Filled != 0.8 {
		t.Errorf("age filled = %v, want 0.8", byField["age"].Filled)
	}
	if byField["sex"].DistinctCount != 2 {
		t.Errorf("sex distinct = %d, want 2", byField["sex"].DistinctCount)
	}

	items := got.Schema.Items
	required := map[string]bool{}
	for _, r := range items.Required {
		required[r] = true
	}
	if !required["record_id"] || !required["dob"] || required["age"] || required["notes"] {
		t.Errorf("unexpected required set: %v", items.Required)
	}

	dob, _ := items.Properties.Get("dob")
	if dob.Format != "date" {
		t.Errorf("dob schema format = %q", dob.Format)
	}
}

func TestInferRecords_Enum(t *testing.T) {
	recs := records(t, `[
		{"record_id": "1", "site": "north"},
		{"record_id": "2", "site": "south"},
		{"record_id": "3", "site": "north"},
		{"record_id": "4", "site": "east"},
		{"record_id": "5", "site": "south"}
	]`)

	got := InferRecords(recs)
	var site FieldStat
	for _, f := range got.Fields {
		if f.Field == "site" {
			site = f
		}
	}
	if site.Format != "enum" {
		t.Fatalf("site format = %q, want enum", site.Format)
	}
	if len(site.EnumValues) != 3 || site.EnumValues[0] != "east" {
		t.Errorf("enum values = %v", site.EnumValues)
	}

	prop, _ := got.Schema.Items.Properties.Get("site")
	if len(prop.Enum) != 4 {
		t.Errorf("schema enum = %v, want blank plus 3 values", prop.Enum)
	}
}

func TestInferRecords_Empty(t *testing.T) {
	got := InferRecords(nil)
	if got.Schema == nil || got.Schema.Type != "array" {
		t.Fatalf("expected array schema, got %+v", got.Schema)
	}
	if len(got.Fields) != 0 || got.RecordCount != 0 {
		t.Errorf("unexpected stats: %+v", got)
	}
}

func TestInferRecords_SchemaMarshals(t *testing.T) {
	got := InferRecords(records(t, `[{"record_id": "1", "age": "3"}]`))
	data, err := json.Marshal(got.Schema)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["$schema"] != "https://json-schema.org/draft/2020-12/schema" {
		t.Errorf("$schema = %v", m["$schema"])
	}
	if m["type"] != "array" {
		t.Errorf("type = %v", m["type"])
	}
}
