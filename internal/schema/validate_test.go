package schema

import (
	"strings"
	"testing"

	"github.com/usestring/redcap-mcp/pkg/client"
)

func TestValidator_JSONSchema(t *testing.T) {
	schemaStr := `{"type": "object", "properties": {"record_id": {"type": "string"}, "age": {"type": "integer"}}, "required": ["record_id"]}`

	validator, err := NewValidator([]byte(schemaStr))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := validator.Validate([]byte(`{"record_id": "1", "age": 30}`))
	if !result.Valid {
		t.Errorf("expected valid, got errors: %v", result.Errors)
	}

	result = validator.Validate([]byte(`{"age": 30}`))
	if result.Valid {
		t.Error("expected invalid for missing record_id")
	}

	result = validator.Validate([]byte(`{"record_id": "1", "age": "thirty"}`))
	if result.Valid {
		t.Error("expected invalid for wrong type")
	}
}

func TestNewValidator_BadSchema(t *testing.T) {
	if _, err := NewValidator([]byte(`{"type": `)); err == nil {
		t.Error("expected error for malformed schema JSON")
	}
	if _, err := NewValidator([]byte(`{"type": "nope"}`)); err == nil {
		t.Error("expected error for invalid schema type")
	}
}

func TestValidator_InvalidJSON(t *testing.T) {
	validator, err := NewValidator([]byte(`{"type": "array"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := validator.Validate([]byte(`[{`))
	if result.Valid || len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "invalid JSON") {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestValidationErrorMessages_HumanReadable(t *testing.T) {
	tests := []struct {
		name         string
		schema       string
		data         string
		wantContains []string
	}{
		{
			name:         "type mismatch",
			schema:       `{"type": "object", "properties": {"age": {"type": "integer"}}}`,
			data:         `{"age": "twenty"}`,
			wantContains: []string{"/age", "integer"},
		},
		{
			name:         "missing required property",
			schema:       `{"type": "object", "required": ["record_id"]}`,
			data:         `{}`,
			wantContains: []string{"record_id"},
		},
		{
			name:         "enum",
			schema:       `{"type": "array", "items": {"type": "object", "properties": {"sex": {"enum": ["0", "1"]}}}}`,
			data:         `[{"sex": "2"}]`,
			wantContains: []string{"/0/sex"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator, err := NewValidator([]byte(tt.schema))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			result := validator.Validate([]byte(tt.data))
			if result.Valid {
				t.Fatal("expected invalid")
			}
			joined := strings.Join(result.Errors, "\n")
			for _, want := range tt.wantContains {
				if !strings.Contains(joined, want) {
					t.Errorf("errors %q should contain %q", joined, want)
				}
			}
			for _, bad := range []string{"&{", "file:///", "$ref"} {
				if strings.Contains(joined, bad) {
					t.Errorf("errors %q should not contain %q", joined, bad)
				}
			}
		})
	}
}

func dictionary() []client.Record {
	return []client.Record{
		{"field_name": "record_id", "form_name": "demographics", "field_type": "text"},
		{"field_name": "age", "form_name": "demographics", "field_type": "text", "text_validation_type_or_show_slider_number": "integer"},
		{"field_name": "dob", "form_name": "demographics", "field_type": "text", "text_validation_type_or_show_slider_number": "date_ymd"},
		{"field_name": "sex", "form_name": "demographics", "field_type": "radio", "select_choices_or_calculations": "0, Female | 1, Male"},
		{"field_name": "race", "form_name": "demographics", "field_type": "checkbox", "select_choices_or_calculations": "1, White | 2, Black | -99, Unknown"},
		{"field_name": "consented", "form_name": "consent", "field_type": "yesno"},
		{"field_name": "header", "form_name": "consent", "field_type": "descriptive"},
		{"field_name": "notes", "form_name": "consent", "field_type": "notes"},
	}
}

func TestFromMetadata_Valid(t *testing.T) {
	validator, err := FromMetadata(dictionary())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := `[
		{"record_id": "1", "age": "34", "dob": "1990-01-31", "sex": "0", "race___1": "1", "race____99": "0",
		 "demographics_complete": "2", "redcap_event_name": "baseline_arm_1"},
		{"record_id": "2", "age": 51, "sex": 1, "dob": "", "consented": "1", "notes": "free text", "consent_complete": 0}
	]`
	result := validator.Validate([]byte(data))
	if !result.Valid {
		t.Errorf("expected valid, got errors: %v", result.Errors)
	}
}

func TestFromMetadata_Invalid(t *testing.T) {
	validator, err := FromMetadata(dictionary())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing record id", `[{"age": "3"}]`, "record_id"},
		{"bad integer", `[{"record_id": "1", "age": "3.5"}]`, "/0/age"},
		{"bad date", `[{"record_id": "1", "dob": "31/01/1990"}]`, "/0/dob"},
		{"unknown choice", `[{"record_id": "1", "sex": "7"}]`, "/0/sex"},
		{"unknown field", `[{"record_id": "1", "weight": "80"}]`, "weight"},
		{"descriptive field", `[{"record_id": "1", "header": "x"}]`, "header"},
		{"not a list", `{"record_id": "1"}`, "array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.Validate([]byte(tt.data))
			if result.Valid {
				t.Fatal("expected invalid")
			}
			joined := strings.Join(result.Errors, "\n")
			if !strings.Contains(joined, tt.want) {
				t.Errorf("errors %q should contain %q", joined, tt.want)
			}
		})
	}
}

func TestFromMetadata_ValidateValue(t *testing.T) {
	validator, err := FromMetadata(dictionary())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records := []client.Record{{"record_id": "9", "consented": "0"}}
	if result := validator.ValidateValue(records); !result.Valid {
		t.Errorf("expected valid, got errors: %v", result.Errors)
	}
}

func TestFromMetadata_Empty(t *testing.T) {
	if _, err := FromMetadata(nil); err == nil {
		t.Error("expected error for empty dictionary")
	}
}

func TestChoiceCodes(t *testing.T) {
	got := choiceCodes("1, Yes | 2, No, really |  , blank")
	if strings.Join(got, ",") != "1,2" {
		t.Errorf("choiceCodes = %v", got)
	}
	if col := checkboxColumn("race", "-99"); col != "race____99" {
		t.Errorf("checkboxColumn = %q", col)
	}
}
