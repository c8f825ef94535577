package session

import (
	"net/url"
	"time"
)

// RequestOptions enumerates the recognized per-request settings.
// The zero value (or a nil pointer) means "no options".
type RequestOptions struct {
	// Headers are explicit header overrides applied after content-type
	// preparation, so they always win. An empty value removes the header.
	Headers map[string]string
	// Query is appended to the request URL.
	Query url.Values
	// JSONBody, when non-nil, is marshaled as the JSON request payload
	// and selects the JSON content-type preset.
	JSONBody any
	// FormBody, when non-nil, is form-encoded as the request payload
	// and selects the form content-type preset (unless JSONBody is set).
	FormBody url.Values
	// TimeoutOverride replaces the session's default per-attempt deadline
	// for this request only. Zero keeps the session default.
	TimeoutOverride time.Duration
}
