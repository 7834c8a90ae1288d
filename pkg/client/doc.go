// Package client provides a Go SDK for the REDCap API.
//
// Every REDCap call is a form-encoded POST to a single endpoint. The payload
// carries the project token, a response format and a "content" discriminator
// that selects the operation. This package builds those payloads, posts them
// and interprets the response as JSON, plain text or a file stream depending
// on the operation.
//
// # Quick Start
//
// Create a client and export records:
//
//	c := client.New(client.NewConfig(client.Options{
//	    Host:  "https://redcap.example.org/api/",
//	    Token: os.Getenv("REDCAP_TOKEN"),
//	}))
//	records, err := c.Records(ctx, client.RecordsQuery{Fields: []string{"age"}}, nil)
//
// Or configure from REDCAP_HOST and REDCAP_TOKEN:
//
//	c := client.New(client.ConfigFromEnv())
//
// # Payload Encoding
//
// REDCap does not accept array parameters, so records and fields are sent as
// indexed keys:
//
//	records[0]=1&records[1]=2&fields[0]=age&fields[1]=record_id
//
// A field-restricted records export always asks for record_id too.
//
// # Request Options
//
// Every operation accepts RequestOptions, which are merged into the payload
// last and override anything the operation set:
//
//	records, err := c.Records(ctx, q, client.RequestOptions{
//	    "rawOrLabel":           "label",
//	    "exportSurveyFields":   "true",
//	    "dateRangeBegin":       "2024-01-01 00:00:00",
//	})
//
// # Caching
//
// With Config.CacheEnabled (REDCAP_CACHE=ON), identical payloads are answered
// from memory for the lifetime of the client. Update, Create and Delete flush
// the cache before they post. File downloads are never cached.
//
// # Errors
//
// Failures are one of *ConfigurationError, *TransportError or
// *ResponseParseError, wrapped with operation context:
//
//	var tErr *client.TransportError
//	if errors.As(err, &tErr) && tErr.StatusCode == http.StatusForbidden {
//	    // bad token
//	}
package client
