package session

import (
	"encoding/json"
	"net/http"
)

// Response is the outcome of a completed HTTP transaction.
// The body has already been drained; the transport connection is released.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Success reports whether the status code is below 400.
	Success bool
	// FinalURL is the URL after following redirects.
	FinalURL string
	// Headers holds the response headers.
	Headers http.Header
	// Cookies holds the cookies set by the response, by name.
	Cookies map[string]string
	// Body is the raw response body.
	Body []byte
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body as a JSON object on a best-effort basis.
// A body that is not a JSON object yields an empty map, never an error.
func (r *Response) JSON() map[string]any {
	parsed := map[string]any{}
	if err := json.Unmarshal(r.Body, &parsed); err != nil {
		return map[string]any{}
	}

	return parsed
}
