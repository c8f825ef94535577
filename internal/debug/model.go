package debug

// CapturedRequest is the request half of a debug record.
// Headers and cookies snapshot the session's full state at dispatch time,
// not just the request-specific values.
type CapturedRequest struct {
	// Timestamp is the capture time in Unix seconds.
	Timestamp float64 `json:"timestamp"`
	// Method is the HTTP method of the outgoing request.
	Method string `json:"method"`
	// URL is the requested URL before redirects.
	URL string `json:"url"`
	// Params holds the request options; non-serializable values are
	// coerced to their string representation.
	Params map[string]any `json:"params"`
	// Headers is the session's full header set at dispatch time.
	Headers map[string]string `json:"headers"`
	// Cookies is the session's full cookie jar at dispatch time.
	Cookies map[string]string `json:"cookies"`
}

// CapturedResponse is the response half of a debug record.
// It stays at its zero value until the transport call completes;
// a transport failure leaves it zeroed with FailureReason set.
type CapturedResponse struct {
	// Timestamp is the capture time in Unix seconds.
	Timestamp float64 `json:"timestamp"`
	// Success reports whether the response status indicates success.
	Success bool `json:"success"`
	// StatusCode is the HTTP status code, 0 when no response arrived.
	StatusCode int `json:"status_code"`
	// URL is the final URL after redirects.
	URL string `json:"url"`
	// Headers holds the response headers.
	Headers map[string]string `json:"headers"`
	// Cookies holds the cookies set by the response.
	Cookies map[string]string `json:"cookies"`
	// BodyText is the raw response body.
	BodyText string `json:"body_text"`
	// BodyJSON is the best-effort JSON parse of the body, {} when not valid JSON.
	BodyJSON map[string]any `json:"body_json"`
	// FailureReason marks a transport failure; empty on completed calls.
	FailureReason string `json:"failure_reason,omitempty"`
}

// Record is one persisted request/response pair.
type Record struct {
	// Request is the request half, captured before dispatch.
	Request *CapturedRequest `json:"request"`
	// Response is the response half, populated after the transport call completes.
	Response *CapturedResponse `json:"response"`
}
