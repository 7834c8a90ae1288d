package client

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return NewConfig(Options{Host: "https://redcap.test/api/", Token: "SECRET"})
}

func TestNewConfig_DefaultsFormat(t *testing.T) {
	cfg := NewConfig(Options{})
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Empty(t, cfg.Host)
	assert.Empty(t, cfg.Token)

	cfg = NewConfig(Options{Format: FormatCSV, LogLevel: slog.LevelInfo})
	assert.Equal(t, FormatCSV, cfg.Format)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvHost, "https://env.test/api/")
	t.Setenv(EnvToken, "ENVTOKEN")
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvCache, "ON")

	cfg := ConfigFromEnv()
	assert.Equal(t, "https://env.test/api/", cfg.Host)
	assert.Equal(t, "ENVTOKEN", cfg.Token)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.CacheEnabled)
}

func TestCacheEnabledFromEnv(t *testing.T) {
	for _, v := range []string{"", "on", "true", "1", "OFF"} {
		t.Setenv(EnvCache, v)
		assert.False(t, CacheEnabledFromEnv(), "value %q", v)
	}
	t.Setenv(EnvCache, "ON")
	assert.True(t, CacheEnabledFromEnv())
}

func TestBuildPayload_Base(t *testing.T) {
	p := BuildPayload(testConfig(), ContentProject, BuildOptions{}, nil)
	assert.Equal(t, Payload{
		"token":   "SECRET",
		"format":  "json",
		"content": "project",
	}, p)
}

func TestBuildPayload_FlattensInOrder(t *testing.T) {
	p := BuildPayload(testConfig(), ContentRecord, BuildOptions{
		Records: []string{"3", "1", "2"},
		Fields:  []string{"age", "sex"},
	}, nil)

	assert.Equal(t, "3", p["records[0]"])
	assert.Equal(t, "1", p["records[1]"])
	assert.Equal(t, "2", p["records[2]"])
	assert.NotContains(t, p, "records[3]")
	assert.Equal(t, "age", p["fields[0]"])
	assert.Equal(t, "sex", p["fields[1]"])
	assert.Len(t, p, 3+3+2)
}

func TestBuildPayload_EmptySlicesContributeNothing(t *testing.T) {
	p := BuildPayload(testConfig(), ContentMetadata, BuildOptions{Fields: []string{}}, nil)
	assert.Len(t, p, 3)
	assert.NotContains(t, p, "fields[0]")
}

func TestBuildPayload_ActionAndFilter(t *testing.T) {
	p := BuildPayload(testConfig(), ContentRecord, BuildOptions{
		Action: "delete",
		Filter: "[age] > 30",
	}, nil)
	assert.Equal(t, "delete", p["action"])
	assert.Equal(t, "[age] > 30", p["filterLogic"])
}

func TestBuildPayload_RequestOptionsOverride(t *testing.T) {
	p := BuildPayload(testConfig(), ContentRecord, BuildOptions{
		Records: []string{"1"},
		Filter:  "[a] = 1",
	}, RequestOptions{
		"format":      "csv",
		"records[0]":  "99",
		"filterLogic": "[b] = 2",
		"rawOrLabel":  "label",
	})
	assert.Equal(t, "csv", p["format"])
	assert.Equal(t, "99", p["records[0]"])
	assert.Equal(t, "[b] = 2", p["filterLogic"])
	assert.Equal(t, "label", p["rawOrLabel"])
	assert.Equal(t, "record", p["content"])
}

func TestPayload_KeyIsCanonical(t *testing.T) {
	a := Payload{"token": "t", "content": "record", "fields[0]": "age"}
	b := Payload{"fields[0]": "age", "content": "record", "token": "t"}
	assert.Equal(t, a.Key(), b.Key())

	b["fields[1]"] = "record_id"
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestPayload_LogValueRedacts(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	p := Payload{"token": "SECRET", "content": "record", "data": `[{"record_id":"1"}]`}
	log.Info("request", slog.Any("payload", p))

	out := buf.String()
	assert.NotContains(t, out, "SECRET")
	assert.NotContains(t, out, "record_id")
	assert.Contains(t, out, "payload.token=[REDACTED]")
	assert.Contains(t, out, "payload.content=record")
}

func TestWithRecordID(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   []string
	}{
		{"empty stays empty", nil, nil},
		{"adds record_id", []string{"age"}, []string{"age", "record_id"}},
		{"keeps existing", []string{"record_id", "age"}, []string{"record_id", "age"}},
		{"dedupes", []string{"age", "age", "record_id"}, []string{"age", "record_id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withRecordID(tt.fields))
		})
	}
}

func TestRecord_String(t *testing.T) {
	r := Record{"a": "x", "n": float64(12), "nil": nil}
	assert.Equal(t, "x", r.String("a"))
	assert.Equal(t, "12", r.String("n"))
	assert.Equal(t, "", r.String("nil"))
	assert.Equal(t, "", r.String("missing"))
}

func TestFilename(t *testing.T) {
	require.Equal(t, "consent.pdf", filename(`application/pdf; name="consent.pdf"`, ""))
	require.Equal(t, "scan.png", filename("image/png", `attachment; filename="scan.png"`))
	require.Equal(t, "", filename("", ""))
}
