package query

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// XPathResult holds the text of matched nodes from a project XML export.
type XPathResult struct {
	Values    []string `json:"values"`
	Count     int      `json:"count"`
	Truncated bool     `json:"truncated,omitempty"`
}

// XPath evaluates expression against a REDCap project XML document and
// returns the trimmed inner text of each non-empty match.
func XPath(doc, expression string, maxResults int) (*XPathResult, error) {
	root, err := xmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse project XML: %w", err)
	}

	nodes, err := xmlquery.QueryAll(root, expression)
	if err != nil {
		return nil, fmt.Errorf("invalid XPath expression: %w", err)
	}

	res := &XPathResult{Values: []string{}}
	for _, node := range nodes {
		if maxResults > 0 && len(res.Values) >= maxResults {
			res.Truncated = true
			break
		}
		if text := strings.TrimSpace(node.InnerText()); text != "" {
			res.Values = append(res.Values, text)
		}
	}
	res.Count = len(res.Values)
	return res, nil
}
