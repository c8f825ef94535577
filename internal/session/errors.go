package session

import "errors"

var (
	// ErrInvalidIdentity indicates construction with an empty user agent.
	ErrInvalidIdentity = errors.New("identity must carry a non-empty user agent")
	// ErrInvalidProxyURL indicates that the identity's proxy URL cannot be parsed.
	ErrInvalidProxyURL = errors.New("invalid proxy URL")
	// ErrTransportFailure indicates a transport-level failure:
	// connection refused, timeout, DNS failure or a malformed response.
	ErrTransportFailure = errors.New("transport failure")
)
