// Package query runs jq expressions over exported REDCap records and XPath
// expressions over project XML.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// Engine executes JQ queries against exported REDCap data.
type Engine struct{}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Result contains the values produced by a query.
type Result struct {
	Values         []any          `json:"values"`
	Errors         []string       `json:"errors,omitempty"`
	RawCount       int            `json:"raw_count"`                 // before deduplication
	Truncated      bool           `json:"truncated,omitempty"`       // max_results reached
	MatchedRecords []string       `json:"matched_records,omitempty"` // record ids that produced values, in input order
	LabelCounts    map[string]int `json:"label_counts,omitempty"`
}

// Options control deduplication and result limits.
type Options struct {
	Deduplicate bool
	MaxResults  int // 0 means unlimited
	// PerRecord runs the expression once per record, labelling output by
	// IDField. Otherwise the whole export is the single input.
	PerRecord bool
	IDField   string
}

// Compile parses and compiles expression.
func Compile(expression string) (*gojq.Code, error) {
	q, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return code, nil
}

// ValidateExpression checks if a JQ expression is valid without executing it.
func (e *Engine) ValidateExpression(expression string) error {
	_, err := Compile(expression)
	return err
}

// Query executes expression against raw JSON.
func (e *Engine) Query(data []byte, expression string, opts Options) (*Result, error) {
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid JSON data: %w", err)
	}
	return e.run(input, expression, opts)
}

// QueryValue executes expression against an already decoded value. Typed maps
// and slices (such as client records) are normalized through JSON first,
// since gojq accepts only plain JSON types.
func (e *Engine) QueryValue(v any, expression string, opts Options) (*Result, error) {
	input, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return e.run(input, expression, opts)
}

func (e *Engine) run(input any, expression string, opts Options) (*Result, error) {
	code, err := Compile(expression)
	if err != nil {
		return nil, err
	}

	r := &runner{
		code:       code,
		opts:       opts,
		result:     &Result{Values: make([]any, 0), LabelCounts: make(map[string]int)},
		seen:       make(map[string]bool),
		seenErrors: make(map[string]bool),
	}

	records, isList := input.([]any)
	if !opts.PerRecord || !isList {
		r.exec("export", input)
		return r.finish(), nil
	}

	idField := opts.IDField
	if idField == "" {
		idField = "record_id"
	}
	matched := make(map[string]bool)
	for i, rec := range records {
		if r.full() {
			break
		}
		label := recordLabel(rec, idField, i)
		if r.exec(label, rec) && !matched[label] {
			matched[label] = true
			r.result.MatchedRecords = append(r.result.MatchedRecords, label)
		}
	}
	return r.finish(), nil
}

type runner struct {
	code       *gojq.Code
	opts       Options
	result     *Result
	seen       map[string]bool
	seenErrors map[string]bool
}

func (r *runner) full() bool {
	return r.opts.MaxResults > 0 && len(r.result.Values) >= r.opts.MaxResults
}

// exec runs the compiled code on one input and reports whether it produced a value.
func (r *runner) exec(label string, input any) bool {
	produced := false
	iter := r.code.Run(input)
	for {
		if r.full() {
			r.result.Truncated = true
			break
		}
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			msg := formatJQError(label, err)
			if !r.seenErrors[msg] {
				r.seenErrors[msg] = true
				r.result.Errors = append(r.result.Errors, msg)
			}
			continue
		}
		if v == nil {
			continue
		}

		produced = true
		r.result.RawCount++
		r.result.LabelCounts[label]++

		if r.opts.Deduplicate {
			key := valueKey(v)
			if r.seen[key] {
				continue
			}
			r.seen[key] = true
		}
		r.result.Values = append(r.result.Values, v)
	}
	return produced
}

func (r *runner) finish() *Result {
	if len(r.result.LabelCounts) == 0 {
		r.result.LabelCounts = nil
	}
	return r.result
}

func recordLabel(rec any, idField string, i int) string {
	if m, ok := rec.(map[string]any); ok {
		switch id := m[idField].(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return fmt.Sprintf("%v", id)
		}
	}
	return fmt.Sprintf("record[%d]", i)
}

func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64, []any, map[string]any:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding query input: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decoding query input: %w", err)
	}
	return out, nil
}

// formatJQError decorates runtime jq errors with a hint. gojq runtime errors
// are untyped, so hints come from the message text.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	errStr := err.Error()
	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the field may be missing from this export)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got a record, try removing '[]')"
	case strings.Contains(errStr, "array") && strings.Contains(errStr, "cannot be indexed"):
		hint = " (expected a record but got the record list, try adding '.[]')"
	}
	return fmt.Sprintf("%s: %s%s", label, errStr, hint)
}

// valueKey creates a string key for deduplication.
func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	case nil:
		return "null"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}
