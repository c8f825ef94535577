package http

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/oshokin/smartfetch/internal/config"
	"github.com/oshokin/smartfetch/internal/logger"
	"github.com/oshokin/smartfetch/internal/utils"
)

// DumpTransport is a custom http.RoundTripper that dumps HTTP requests and responses
// to the debug log. It wraps another http.RoundTripper and logs one entry
// per request/response cycle, truncated to maxDumpLength.
type DumpTransport struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// maxDumpLength is the maximum length of dumped request/response data.
	maxDumpLength uint64
}

// Static error definitions for better error handling.
var (
	// ErrNilRequest indicates that the HTTP request is nil.
	ErrNilRequest = errors.New("request is nil")
)

// NewDumpTransport creates and returns a new instance of DumpTransport.
// If maxDumpLength is 0, it defaults to config.DefaultMaxLogLength.
func NewDumpTransport(next http.RoundTripper, maxDumpLength uint64) http.RoundTripper {
	if maxDumpLength == 0 {
		maxDumpLength = config.DefaultMaxLogLength
	}

	return &DumpTransport{
		next:          next,
		maxDumpLength: maxDumpLength,
	}
}

// RoundTrip executes a single HTTP transaction and dumps the request and response.
// It implements the http.RoundTripper interface.
func (t *DumpTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	// Skip dumping entirely unless the logger is at debug level.
	if !logger.IsDebugLevel() {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()

	requestDump := t.dumpRequest(req)

	startTime := time.Now()

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(startTime)

	if err != nil {
		logger.Debugf(ctx, "Request failed: %s %s | Error: %v", req.Method, req.URL.String(), err)

		return nil, err
	}

	responseDump := t.dumpResponse(resp)

	logger.Debugf(ctx, "%s %s [%d] %s\nRequest: %s\nResponse: %s",
		req.Method, req.URL.Path, resp.StatusCode, duration, requestDump, responseDump)

	return resp, nil
}

func (t *DumpTransport) dumpRequest(req *http.Request) string {
	// Include the request body in the dump.
	dump, err := httputil.DumpRequest(req, true)
	if err != nil {
		return err.Error()
	}

	return t.truncate(dump)
}

func (t *DumpTransport) dumpResponse(resp *http.Response) string {
	// Only dump the body when the Content-Type says it's textual.
	contentType := resp.Header.Get("Content-Type")

	dump, err := httputil.DumpResponse(resp, utils.IsTextContentType(contentType))
	if err != nil {
		return err.Error()
	}

	return t.truncate(dump)
}

func (t *DumpTransport) truncate(data []byte) string {
	if uint64(len(data)) > t.maxDumpLength {
		return string(data[:t.maxDumpLength]) + "... [truncated]"
	}

	return string(data)
}
