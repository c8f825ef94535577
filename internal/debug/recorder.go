package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/smartfetch/internal/logger"
)

// RequestSnapshot carries the session state captured right before dispatch.
type RequestSnapshot struct {
	// Params holds the request options as loosely typed values.
	Params map[string]any
	// Headers is the session's full header set.
	Headers map[string]string
	// Cookies is the session's full cookie jar.
	Cookies map[string]string
}

// ResponseSnapshot carries the response state captured after the transport call.
type ResponseSnapshot struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Success reports whether the status indicates success.
	Success bool
	// FinalURL is the URL after redirects.
	FinalURL string
	// Headers holds the response headers flattened to single values.
	Headers map[string]string
	// Cookies holds the cookies set by the response.
	Cookies map[string]string
	// BodyText is the raw response body.
	BodyText string
}

// Recorder captures correlated request/response pairs under increasing ids.
// Calls follow a strict per-request protocol: RecordRequest, then exactly one
// of RecordResponse or RecordFailure. Recorder is not safe for concurrent
// interleaving of that protocol from multiple goroutines.
type Recorder interface {
	// NextID advances and returns the sequence counter. Ids are strictly
	// increasing over the recorder's lifetime, starting at 1.
	NextID() uint64
	// RecordRequest captures the request half under a fresh id and persists it.
	// It returns the assigned id.
	RecordRequest(ctx context.Context, method, url string, snapshot *RequestSnapshot) uint64
	// RecordResponse fills the in-flight record's response half and re-persists it.
	RecordResponse(ctx context.Context, snapshot *ResponseSnapshot)
	// RecordFailure marks the in-flight record as failed before a response arrived
	// and re-persists it. The response half keeps its zero status code.
	RecordFailure(ctx context.Context, err error)
}

// RecorderImpl implements Recorder over a Sink.
type RecorderImpl struct {
	// sink receives complete records keyed by id.
	sink Sink
	// mutex guards the counter and the in-flight record.
	mutex sync.Mutex
	// currentID is the last assigned sequence number.
	currentID uint64
	// current is the in-flight record awaiting its response half.
	current *Record
}

// NewRecorder creates a recorder persisting records through the given sink.
func NewRecorder(sink Sink) Recorder {
	return &RecorderImpl{sink: sink}
}

// NextID advances and returns the sequence counter.
func (r *RecorderImpl) NextID() uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.currentID++

	return r.currentID
}

// RecordRequest captures the request half under a fresh id and persists it.
func (r *RecorderImpl) RecordRequest(
	ctx context.Context,
	method, url string,
	snapshot *RequestSnapshot,
) uint64 {
	id := r.NextID()
	timestamp := unixSeconds(time.Now())

	record := &Record{
		Request: &CapturedRequest{
			Timestamp: timestamp,
			Method:    method,
			URL:       url,
			Params:    coerceParams(snapshotParams(snapshot)),
			Headers:   snapshotHeaders(snapshot),
			Cookies:   snapshotCookies(snapshot),
		},
		Response: &CapturedResponse{
			Timestamp: timestamp,
			BodyJSON:  map[string]any{},
		},
	}

	r.mutex.Lock()
	r.current = record
	r.mutex.Unlock()

	r.persist(ctx, id, record)

	return id
}

// RecordResponse fills the in-flight record's response half and re-persists it.
func (r *RecorderImpl) RecordResponse(ctx context.Context, snapshot *ResponseSnapshot) {
	r.mutex.Lock()
	id, record := r.currentID, r.current
	r.mutex.Unlock()

	if record == nil || snapshot == nil {
		return
	}

	record.Response.Timestamp = unixSeconds(time.Now())
	record.Response.Success = snapshot.Success
	record.Response.StatusCode = snapshot.StatusCode
	record.Response.URL = snapshot.FinalURL
	record.Response.Headers = snapshot.Headers
	record.Response.Cookies = snapshot.Cookies
	record.Response.BodyText = snapshot.BodyText
	record.Response.BodyJSON = parseBodyJSON(snapshot.BodyText)

	r.persist(ctx, id, record)
}

// RecordFailure marks the in-flight record as failed before a response arrived.
func (r *RecorderImpl) RecordFailure(ctx context.Context, err error) {
	r.mutex.Lock()
	id, record := r.currentID, r.current
	r.mutex.Unlock()

	if record == nil || err == nil {
		return
	}

	record.Response.Timestamp = unixSeconds(time.Now())
	record.Response.Success = false
	record.Response.FailureReason = err.Error()

	r.persist(ctx, id, record)
}

// persist writes the record to the sink. Sink failures are logged and
// never interrupt the request path.
func (r *RecorderImpl) persist(ctx context.Context, id uint64, record *Record) {
	if err := r.sink.Write(id, record); err != nil {
		logger.Errorf(ctx, "Failed to persist debug record %d: %v", id, err)
	}
}

// unixSeconds converts a time to Unix seconds with sub-second precision.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// parseBodyJSON decodes the body as a JSON object on a best-effort basis.
// Anything that is not a JSON object yields an empty map, never an error.
func parseBodyJSON(body string) map[string]any {
	parsed := map[string]any{}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return map[string]any{}
	}

	return parsed
}

// coerceParams attempts canonical JSON serialization of each value;
// on failure the value is substituted with its textual representation.
func coerceParams(params map[string]any) map[string]any {
	result := make(map[string]any, len(params))

	for key, value := range params {
		if _, err := json.Marshal(value); err != nil {
			result[key] = fmt.Sprint(value)
			continue
		}

		result[key] = value
	}

	return result
}

func snapshotParams(snapshot *RequestSnapshot) map[string]any {
	if snapshot == nil || snapshot.Params == nil {
		return map[string]any{}
	}

	return snapshot.Params
}

func snapshotHeaders(snapshot *RequestSnapshot) map[string]string {
	if snapshot == nil || snapshot.Headers == nil {
		return map[string]string{}
	}

	return snapshot.Headers
}

func snapshotCookies(snapshot *RequestSnapshot) map[string]string {
	if snapshot == nil || snapshot.Cookies == nil {
		return map[string]string{}
	}

	return snapshot.Cookies
}
