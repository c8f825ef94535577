package session

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oshokin/smartfetch/internal/debug"
	"github.com/oshokin/smartfetch/internal/identity"
	"github.com/oshokin/smartfetch/internal/logger"
	http_transport "github.com/oshokin/smartfetch/internal/transport/http"
)

// Client is one mutable HTTP session bound to a network identity.
// It owns default headers, a cookie jar, an optional proxy and a timeout,
// and performs requests with optional debug capture.
type Client interface {
	// Identity returns the identity the session was constructed with.
	Identity() identity.Identity
	// SetHeader upserts a session default header. Keys are case-insensitive.
	SetHeader(key, value string)
	// DeleteHeader removes a session default header if present.
	DeleteHeader(key string)
	// GetHeader returns a session default header value, or "" when absent.
	GetHeader(key string) string
	// SetAccept sets the Accept header. An empty value applies the default.
	SetAccept(value string)
	// SetAcceptEncoding sets the Accept-Encoding header. An empty value applies the default.
	SetAcceptEncoding(value string)
	// SetAcceptLanguage sets the Accept-Language header. An empty value applies the default.
	SetAcceptLanguage(value string)
	// SetOrigin sets the Origin header. An empty value removes it.
	SetOrigin(value string)
	// SetReferer sets the Referer header. An empty value removes it.
	SetReferer(value string)
	// SetContentType sets the Content-Type header. An empty value removes it.
	SetContentType(value string)
	// SetXRequestedWith sets the X-Requested-With header. An empty value applies the default.
	SetXRequestedWith(value string)
	// UseFormContentType sets the Content-Type preset for form-encoded payloads.
	UseFormContentType(withCharset bool)
	// UseJSONContentType sets the Content-Type preset for JSON payloads.
	UseJSONContentType(withCharset bool)
	// SetCookie upserts a cookie in the session jar.
	SetCookie(key, value string)
	// Cookies returns a copy of the session's cookie jar.
	Cookies() map[string]string
	// LoadCookies merges a persisted cookie jar into the session. A missing file is a no-op.
	LoadCookies(path string) error
	// SaveCookies serializes the full session jar to the given path.
	SaveCookies(path string) error
	// Perform executes one HTTP request through the session.
	Perform(ctx context.Context, method, requestURL string, debugEnabled bool, opts *RequestOptions) (*Response, error)
	// Get performs a GET request.
	Get(ctx context.Context, requestURL string, debugEnabled bool, opts *RequestOptions) (*Response, error)
	// Post performs a POST request.
	Post(ctx context.Context, requestURL string, debugEnabled bool, opts *RequestOptions) (*Response, error)
	// Head performs a HEAD request.
	Head(ctx context.Context, requestURL string, debugEnabled bool, opts *RequestOptions) (*Response, error)
	// Options performs an OPTIONS request.
	Options(ctx context.Context, requestURL string, debugEnabled bool, opts *RequestOptions) (*Response, error)
	// Connect performs a CONNECT request.
	Connect(ctx context.Context, requestURL string, debugEnabled bool, opts *RequestOptions) (*Response, error)
	// Put performs a PUT request.
	Put(ctx context.Context, requestURL string, debugEnabled bool, opts *RequestOptions) (*Response, error)
	// Patch performs a PATCH request.
	Patch(ctx context.Context, requestURL string, debugEnabled bool, opts *RequestOptions) (*Response, error)
	// Delete performs a DELETE request.
	Delete(ctx context.Context, requestURL string, debugEnabled bool, opts *RequestOptions) (*Response, error)
}

// ClientImpl implements the Client interface over net/http.
type ClientImpl struct {
	// id is the immutable identity the session was constructed with.
	id identity.Identity
	// headers holds the session default headers under canonical keys.
	headers map[string]string
	// cookies is the session cookie jar, by cookie name.
	cookies map[string]string
	// timeout is the default per-attempt deadline.
	timeout time.Duration
	// recorder captures request/response pairs on debug-enabled calls. May be nil.
	recorder debug.Recorder
	// httpClient is the underlying HTTP client.
	httpClient *http.Client
}

// NewClient constructs a session client bound to the given identity.
// The identity must carry a non-empty user agent. When the identity has a
// proxy URL, it is applied to the transport for both http and https schemes.
// A zero timeout falls back to the transport package default.
// The recorder may be nil, disabling debug capture.
func NewClient(id identity.Identity, timeout time.Duration, recorder debug.Recorder) (Client, error) {
	if id.UserAgent == "" {
		return nil, ErrInvalidIdentity
	}

	if timeout <= 0 {
		timeout = http_transport.DefaultTimeout
	}

	baseTransport := http.DefaultTransport

	if id.ProxyURL != "" {
		proxyURL, err := url.Parse(id.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProxyURL, err)
		}

		transport, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			transport = &http.Transport{}
		} else {
			transport = transport.Clone()
		}

		// ProxyURL routes every scheme through the same proxy.
		transport.Proxy = http.ProxyURL(proxyURL)
		baseTransport = transport
	}

	httpClient := &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewDumpTransport(baseTransport, 0),
			http_transport.NewStaticUserAgentProvider(id.UserAgent)),
	}

	client := &ClientImpl{
		id:         id,
		headers:    map[string]string{"User-Agent": id.UserAgent},
		cookies:    make(map[string]string),
		timeout:    timeout,
		recorder:   recorder,
		httpClient: httpClient,
	}

	return client, nil
}

// Identity returns the identity the session was constructed with.
func (c *ClientImpl) Identity() identity.Identity {
	return c.id
}

// Perform executes one HTTP request through the session.
// It prepares content-type headers from the options, captures the outgoing
// request when debugging, dispatches with the session timeout (unless
// overridden) and drains the body. A completed request is logged as
// [status]<bodyLength>url at info level. A transport-level failure is logged,
// captured as an explicit failure marker when debugging, and returned as an
// error wrapping ErrTransportFailure; converting that into an absent result
// is the caller's policy.
func (c *ClientImpl) Perform(
	ctx context.Context,
	method, requestURL string,
	debugEnabled bool,
	opts *RequestOptions,
) (*Response, error) {
	c.prepareHeaders(opts)

	if debugEnabled && c.recorder != nil {
		c.recorder.RecordRequest(ctx, method, requestURL, c.requestSnapshot(opts))
	}

	timeout := c.timeout
	if opts != nil && opts.TimeoutOverride > 0 {
		timeout = opts.TimeoutOverride
	}

	requestCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := c.buildRequest(requestCtx, method, requestURL, opts)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, c.transportFailure(ctx, method, requestURL, debugEnabled, err)
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, c.transportFailure(ctx, method, requestURL, debugEnabled, err)
	}

	result := &Response{
		StatusCode: response.StatusCode,
		Success:    response.StatusCode < http.StatusBadRequest,
		FinalURL:   response.Request.URL.String(),
		Headers:    response.Header,
		Cookies:    cookiesByName(response.Cookies()),
		Body:       body,
	}

	// Responses may refresh session cookies for subsequent calls.
	maps.Copy(c.cookies, result.Cookies)

	logger.Infof(ctx, "[%d]<%d>%s", result.StatusCode, len(result.Body), result.FinalURL)

	if debugEnabled && c.recorder != nil {
		c.recorder.RecordResponse(ctx, &debug.ResponseSnapshot{
			StatusCode: result.StatusCode,
			Success:    result.Success,
			FinalURL:   result.FinalURL,
			Headers:    flattenHeaders(result.Headers),
			Cookies:    result.Cookies,
			BodyText:   result.Text(),
		})
	}

	return result, nil
}

// Get performs a GET request.
func (c *ClientImpl) Get(
	ctx context.Context,
	requestURL string,
	debugEnabled bool,
	opts *RequestOptions,
) (*Response, error) {
	return c.Perform(ctx, http.MethodGet, requestURL, debugEnabled, opts)
}

// Post performs a POST request.
func (c *ClientImpl) Post(
	ctx context.Context,
	requestURL string,
	debugEnabled bool,
	opts *RequestOptions,
) (*Response, error) {
	return c.Perform(ctx, http.MethodPost, requestURL, debugEnabled, opts)
}

// Head performs a HEAD request.
func (c *ClientImpl) Head(
	ctx context.Context,
	requestURL string,
	debugEnabled bool,
	opts *RequestOptions,
) (*Response, error) {
	return c.Perform(ctx, http.MethodHead, requestURL, debugEnabled, opts)
}

// Options performs an OPTIONS request.
func (c *ClientImpl) Options(
	ctx context.Context,
	requestURL string,
	debugEnabled bool,
	opts *RequestOptions,
) (*Response, error) {
	return c.Perform(ctx, http.MethodOptions, requestURL, debugEnabled, opts)
}

// Connect performs a CONNECT request.
func (c *ClientImpl) Connect(
	ctx context.Context,
	requestURL string,
	debugEnabled bool,
	opts *RequestOptions,
) (*Response, error) {
	return c.Perform(ctx, http.MethodConnect, requestURL, debugEnabled, opts)
}

// Put performs a PUT request.
func (c *ClientImpl) Put(
	ctx context.Context,
	requestURL string,
	debugEnabled bool,
	opts *RequestOptions,
) (*Response, error) {
	return c.Perform(ctx, http.MethodPut, requestURL, debugEnabled, opts)
}

// Patch performs a PATCH request.
func (c *ClientImpl) Patch(
	ctx context.Context,
	requestURL string,
	debugEnabled bool,
	opts *RequestOptions,
) (*Response, error) {
	return c.Perform(ctx, http.MethodPatch, requestURL, debugEnabled, opts)
}

// Delete performs a DELETE request.
func (c *ClientImpl) Delete(
	ctx context.Context,
	requestURL string,
	debugEnabled bool,
	opts *RequestOptions,
) (*Response, error) {
	return c.Perform(ctx, http.MethodDelete, requestURL, debugEnabled, opts)
}

// buildRequest assembles the outgoing request: URL query, payload,
// session headers and session cookies.
func (c *ClientImpl) buildRequest(
	ctx context.Context,
	method, requestURL string,
	opts *RequestOptions,
) (*http.Request, error) {
	body, err := buildRequestBody(opts)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if opts != nil && len(opts.Query) > 0 {
		query := request.URL.Query()
		for key, values := range opts.Query {
			for _, value := range values {
				query.Add(key, value)
			}
		}

		request.URL.RawQuery = query.Encode()
	}

	for key, value := range c.headers {
		request.Header.Set(key, value)
	}

	for name, value := range c.cookies {
		request.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	return request, nil
}

// transportFailure logs the failure, records the explicit failure marker
// when debugging and returns the classified error.
func (c *ClientImpl) transportFailure(
	ctx context.Context,
	method, requestURL string,
	debugEnabled bool,
	err error,
) error {
	logger.Errorf(ctx, "Request failed: %s %s: %v", method, requestURL, err)

	if debugEnabled && c.recorder != nil {
		c.recorder.RecordFailure(ctx, err)
	}

	return fmt.Errorf("%w: %v", ErrTransportFailure, err)
}

// requestSnapshot captures the session's full header set and cookie jar,
// plus the recognized request options, for debug recording.
func (c *ClientImpl) requestSnapshot(opts *RequestOptions) *debug.RequestSnapshot {
	params := map[string]any{}

	if opts != nil {
		if opts.JSONBody != nil {
			params["json"] = opts.JSONBody
		}

		if opts.FormBody != nil {
			params["data"] = opts.FormBody
		}

		if len(opts.Query) > 0 {
			params["query"] = opts.Query
		}

		if len(opts.Headers) > 0 {
			params["headers"] = opts.Headers
		}

		if opts.TimeoutOverride > 0 {
			params["timeout"] = opts.TimeoutOverride.String()
		}
	}

	return &debug.RequestSnapshot{
		Params:  params,
		Headers: maps.Clone(c.headers),
		Cookies: maps.Clone(c.cookies),
	}
}

// buildRequestBody encodes the payload from the options:
// JSON wins over a form payload when both are present.
func buildRequestBody(opts *RequestOptions) (io.Reader, error) {
	if opts == nil {
		return http.NoBody, nil
	}

	if opts.JSONBody != nil {
		payload, err := json.Marshal(opts.JSONBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON payload: %w", err)
		}

		return bytes.NewReader(payload), nil
	}

	if opts.FormBody != nil {
		return strings.NewReader(opts.FormBody.Encode()), nil
	}

	return http.NoBody, nil
}

// cookiesByName flattens response cookies to a name→value mapping.
func cookiesByName(cookies []*http.Cookie) map[string]string {
	result := make(map[string]string, len(cookies))
	for _, cookie := range cookies {
		result[cookie.Name] = cookie.Value
	}

	return result
}

// flattenHeaders keeps the first value of each header for capture.
func flattenHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for key := range headers {
		result[key] = headers.Get(key)
	}

	return result
}
