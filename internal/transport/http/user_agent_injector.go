package http

//go:generate $MOCKGEN -source=user_agent_injector.go -destination=mocks/user_agent_injector_mock.go

import "net/http"

// UserAgentProvider supplies the User-Agent string to inject into outgoing requests.
type UserAgentProvider interface {
	// UserAgent returns a User-Agent string.
	UserAgent() string
}

// StaticUserAgentProvider is a UserAgentProvider returning a fixed string,
// typically the user agent of the session's identity.
type StaticUserAgentProvider struct {
	// userAgent is the User-Agent string to return.
	userAgent string
}

// NewStaticUserAgentProvider creates and returns a new instance of StaticUserAgentProvider.
func NewStaticUserAgentProvider(userAgent string) UserAgentProvider {
	return &StaticUserAgentProvider{userAgent: userAgent}
}

// UserAgent returns the fixed User-Agent string.
func (p *StaticUserAgentProvider) UserAgent() string {
	return p.userAgent
}

// UserAgentInjector is a custom http.RoundTripper that injects a User-Agent header into HTTP requests.
// It wraps another http.RoundTripper and ensures that a User-Agent header is present in every request.
type UserAgentInjector struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// userAgentProvider provides the User-Agent string to inject.
	userAgentProvider UserAgentProvider
}

// userAgentHeader is the HTTP header name for User-Agent.
const userAgentHeader = "User-Agent"

// NewUserAgentInjector creates and returns a new instance of UserAgentInjector.
// It takes an underlying http.RoundTripper and a UserAgentProvider to supply the User-Agent string.
func NewUserAgentInjector(next http.RoundTripper, userAgentProvider UserAgentProvider) http.RoundTripper {
	return &UserAgentInjector{
		next:              next,
		userAgentProvider: userAgentProvider,
	}
}

// RoundTrip executes a single HTTP transaction and injects a User-Agent header if it is missing.
// It implements the http.RoundTripper interface.
func (t *UserAgentInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(userAgentHeader) == "" {
		req.Header.Set(userAgentHeader, t.userAgentProvider.UserAgent())
	}

	return t.next.RoundTrip(req)
}
