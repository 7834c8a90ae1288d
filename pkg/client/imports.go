package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// importOptions are the fixed parameters of a flat record import. REDCap
// reads format as the format of data, which is always JSON here.
func importOptions(data []byte, returnContent string) RequestOptions {
	return RequestOptions{
		"format":            string(FormatJSON),
		"overwriteBehavior": "normal",
		"type":              "flat",
		"returnContent":     returnContent,
		"data":              string(data),
	}
}

// count decodes a JSON number that REDCap may send quoted.
type count int

func (n *count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid count %s", b)
	}
	*n = count(v)
	return nil
}

// Update imports data (typically a slice of records) and reports whether
// exactly one record was updated. The response cache is flushed first.
func (c *Client) Update(ctx context.Context, data any, opts RequestOptions) (bool, error) {
	p, err := c.importPayload(data, "count", opts)
	if err != nil {
		return false, err
	}
	c.FlushCache()

	var out struct {
		Count count `json:"count"`
	}
	if _, err := c.post(ctx, p, &out, false); err != nil {
		return false, fmt.Errorf("updating records: %w", err)
	}
	return out.Count == 1, nil
}

// Create imports data and returns the identifiers of the created records as
// REDCap sent them. The response cache is flushed first.
func (c *Client) Create(ctx context.Context, data any, opts RequestOptions) ([]any, error) {
	p, err := c.importPayload(data, "ids", opts)
	if err != nil {
		return nil, err
	}
	c.FlushCache()

	var ids []any
	if _, err := c.post(ctx, p, &ids, false); err != nil {
		return nil, fmt.Errorf("creating records: %w", err)
	}
	return ids, nil
}

// Delete deletes the given records and returns how many REDCap removed.
// An empty ids slice is a no-op: nothing is sent and the cache is kept.
func (c *Client) Delete(ctx context.Context, ids []string, opts RequestOptions) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	p, err := c.payload(ContentRecord, BuildOptions{Action: "delete", Records: ids}, opts)
	if err != nil {
		return 0, err
	}
	c.FlushCache()

	var n count
	if _, err := c.post(ctx, p, &n, false); err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}
	return int(n), nil
}

func (c *Client) importPayload(data any, returnContent string, opts RequestOptions) (Payload, error) {
	if c.cfg == nil {
		return nil, &ConfigurationError{Message: "no configuration", Cause: ErrNotConfigured}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding import data: %w", err)
	}
	return c.payload(ContentRecord, BuildOptions{}, merge(importOptions(encoded, returnContent), opts))
}
