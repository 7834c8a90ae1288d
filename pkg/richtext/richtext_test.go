package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/redcap-mcp/pkg/client"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Date of birth", "Date of birth"},
		{"whitespace", "  Weight \n (kg) ", "Weight (kg)"},
		{"rich text label", `<div class="rich-text-field-label"><p>Have you <strong>ever</strong> smoked?</p></div>`, "Have you ever smoked?"},
		{"paragraphs", "<p>Section A</p><p>Demographics</p>", "Section A Demographics"},
		{"line break", "Systolic<br>mmHg", "Systolic mmHg"},
		{"entities", "Height &amp; weight", "Height & weight"},
		{"script dropped", "<p>Visit</p><script>alert(1)</script>", "Visit"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestPlainLabels(t *testing.T) {
	rows := []client.Record{
		{"field_name": "smoker", "field_label": "<p>Smoker?</p>", "field_note": "", "field_type": "yesno"},
		{"field_name": "bp", "field_label": "BP", "section_header": "<h3>Vitals</h3>"},
	}

	out := PlainLabels(rows)
	require.Len(t, out, 2)
	assert.Equal(t, "Smoker?", out[0]["field_label"])
	assert.Equal(t, "", out[0]["field_note"])
	assert.Equal(t, "yesno", out[0]["field_type"])
	assert.Equal(t, "Vitals", out[1]["section_header"])

	// input rows are not modified
	assert.Equal(t, "<p>Smoker?</p>", rows[0]["field_label"])
}
