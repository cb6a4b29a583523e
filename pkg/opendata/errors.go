package opendata

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by requests issued after Close on a requester that owns its client.
var ErrClosed = errors.New("opendata: requester closed")

// HTTPError reports a non-2xx response from the open-data endpoint.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d body: %s", e.URL, e.StatusCode, e.Body)
}

// JSONParseError reports a response body that is not valid JSON.
type JSONParseError struct {
	URL string
	Err error
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("decode json from %s: %v", e.URL, e.Err)
}

func (e *JSONParseError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
