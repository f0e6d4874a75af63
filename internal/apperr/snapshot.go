package apperr

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

// maxSnapshotBody bounds every body copied into a diagnostic snapshot.
const maxSnapshotBody = 2048

var redactedHeaders = map[string]bool{
	"Authorization":             true,
	"Api-Key":                   true,
	"Ocp-Apim-Subscription-Key": true,
	"Cookie":                    true,
	"X-Api-Key":                 true,
}

// RequestSnapshot is a diagnostic copy of an HTTP request.
type RequestSnapshot struct {
	Method  string              `json:"method,omitempty"`
	URL     string              `json:"url,omitempty"`
	Headers map[string][]string `json:"headers,omitempty"`
	Params  map[string][]string `json:"params,omitempty"`
	Body    string              `json:"body,omitempty"`
}

// ResponseSnapshot is a diagnostic copy of an HTTP response.
type ResponseSnapshot struct {
	StatusCode int                 `json:"status_code,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       string              `json:"body,omitempty"`
}

// SnapshotRequest copies method, URL, headers and query parameters of r.
// Credentials are redacted. body is an optional caller-built summary of the
// payload; callers must not pass binary attachments.
func SnapshotRequest(r *http.Request, body string) *RequestSnapshot {
	if r == nil {
		return nil
	}
	snap := &RequestSnapshot{
		Method:  r.Method,
		Headers: RedactHeaders(r.Header),
		Body:    Truncate(body, maxSnapshotBody),
	}
	if r.URL != nil {
		u := *r.URL
		u.User = nil
		snap.URL = u.String()
		if q := u.Query(); len(q) > 0 {
			snap.Params = map[string][]string(q)
		}
	}
	return snap
}

// SnapshotResponse copies status and headers of resp plus a truncated body.
func SnapshotResponse(resp *http.Response, body []byte) *ResponseSnapshot {
	if resp == nil {
		return nil
	}
	return &ResponseSnapshot{
		StatusCode: resp.StatusCode,
		Headers:    RedactHeaders(resp.Header),
		Body:       Truncate(string(body), maxSnapshotBody),
	}
}

// RedactHeaders returns a copy of h with credential headers masked.
func RedactHeaders(h http.Header) map[string][]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string][]string, len(h))
	for k, v := range h {
		if redactedHeaders[http.CanonicalHeaderKey(k)] {
			out[k] = []string{"[redacted]"}
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Truncate shortens s to at most limit bytes without splitting a rune.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	var sb strings.Builder
	sb.WriteString(s[:cut])
	sb.WriteString("…")
	return sb.String()
}
