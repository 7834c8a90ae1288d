// Package contenttype classifies the content types of REDCap file downloads.
package contenttype

import (
	"mime"
	"path"
	"strings"
	"unicode/utf8"
)

// Category represents a broad content-type classification.
type Category string

const (
	JSON   Category = "json"
	XML    Category = "xml"
	CSV    Category = "csv"
	Text   Category = "text"
	Binary Category = "binary"
)

// Classify returns the broad category of a Content-Type header value.
// Parameters such as charset or REDCap's name="..." are ignored.
// Empty values are Binary.
func Classify(contentType string) Category {
	if contentType == "" {
		return Binary
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case strings.Contains(mediaType, "json"):
		return JSON
	case strings.Contains(mediaType, "xml"):
		return XML
	case mediaType == "text/csv" || mediaType == "text/tab-separated-values":
		return CSV
	case strings.HasPrefix(mediaType, "text/"):
		return Text
	}
	return Binary
}

// IsText reports whether a download can be returned inline as text.
// Unknown and generic binary types fall back to UTF-8 validation of data,
// since REDCap often serves uploads as application/octet-stream.
func IsText(contentType string, data []byte) bool {
	if c := Classify(contentType); c != Binary {
		return true
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if strings.HasPrefix(mediaType, "image/") ||
		strings.HasPrefix(mediaType, "audio/") ||
		strings.HasPrefix(mediaType, "video/") ||
		strings.Contains(mediaType, "pdf") ||
		strings.Contains(mediaType, "zip") {
		return false
	}
	return utf8.Valid(data)
}

// FromFilename guesses a content type from a download name, returning
// application/octet-stream when the extension is unknown.
func FromFilename(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
