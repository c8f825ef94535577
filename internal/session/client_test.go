package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/smartfetch/internal/debug"
	"github.com/oshokin/smartfetch/internal/identity"
)

// recordingSink keeps every written record for assertions.
type recordingSink struct {
	writes  []uint64
	records map[uint64]*debug.Record
}

func newRecordingSink() *recordingSink {
	return &recordingSink{records: make(map[uint64]*debug.Record)}
}

func (s *recordingSink) Write(id uint64, record *debug.Record) error {
	s.writes = append(s.writes, id)
	s.records[id] = record

	return nil
}

// TestNewClient tests session client construction.
func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		id          identity.Identity
		expectedErr error
	}{
		{
			name:        "plain user agent",
			id:          identity.Identity{UserAgent: "Mozilla/5.0 (X11; Linux x86_64)"},
			expectedErr: nil,
		},
		{
			name: "user agent with proxy",
			id: identity.Identity{
				UserAgent: "Mozilla/5.0 (Macintosh)",
				ProxyURL:  "http://proxy.example.com:8080",
			},
			expectedErr: nil,
		},
		{
			name:        "empty user agent",
			id:          identity.Identity{ProxyURL: "http://proxy.example.com:8080"},
			expectedErr: ErrInvalidIdentity,
		},
		{
			name: "malformed proxy URL",
			id: identity.Identity{
				UserAgent: "Mozilla/5.0 (Test)",
				ProxyURL:  "http://[::1]:namedport",
			},
			expectedErr: ErrInvalidProxyURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := NewClient(tt.id, 0, nil)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, client)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.id, client.Identity())
			assert.Equal(t, tt.id.UserAgent, client.GetHeader("User-Agent"))
		})
	}
}

// TestPerform_SendsSessionState tests that headers and cookies reach the server.
func TestPerform_SendsSessionState(t *testing.T) {
	t.Parallel()

	var (
		seenUserAgent string
		seenHeader    string
		seenCookie    string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserAgent = r.Header.Get("User-Agent")
		seenHeader = r.Header.Get("X-Custom")

		if cookie, err := r.Cookie("session"); err == nil {
			seenCookie = cookie.Value
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	client, err := NewClient(identity.Identity{UserAgent: "Mozilla/5.0 (Test)"}, 0, nil)
	require.NoError(t, err)

	client.SetHeader("X-Custom", "custom-value")
	client.SetCookie("session", "abc123")

	response, err := client.Get(context.Background(), server.URL, false, nil)
	require.NoError(t, err)
	require.NotNil(t, response)

	assert.Equal(t, "Mozilla/5.0 (Test)", seenUserAgent)
	assert.Equal(t, "custom-value", seenHeader)
	assert.Equal(t, "abc123", seenCookie)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.True(t, response.Success)
	assert.Equal(t, "payload", response.Text())
}

// TestPerform_JSONBody tests JSON payload encoding and the content-type preset.
func TestPerform_JSONBody(t *testing.T) {
	t.Parallel()

	var (
		seenContentType string
		seenBody        []byte
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenContentType = r.Header.Get("Content-Type")
		seenBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewClient(identity.Identity{UserAgent: "Mozilla/5.0 (Test)"}, 0, nil)
	require.NoError(t, err)

	response, err := client.Post(context.Background(), server.URL, false, &RequestOptions{
		JSONBody: map[string]any{"name": "value"},
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json; charset=UTF-8", seenContentType)
	assert.JSONEq(t, `{"name":"value"}`, string(seenBody))
	assert.Equal(t, http.StatusCreated, response.StatusCode)
}

// TestPerform_FormBody tests form payload encoding and the content-type preset.
func TestPerform_FormBody(t *testing.T) {
	t.Parallel()

	var (
		seenContentType string
		seenBody        []byte
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenContentType = r.Header.Get("Content-Type")
		seenBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(identity.Identity{UserAgent: "Mozilla/5.0 (Test)"}, 0, nil)
	require.NoError(t, err)

	form := url.Values{}
	form.Set("field", "value with spaces")

	_, err = client.Post(context.Background(), server.URL, false, &RequestOptions{FormBody: form})
	require.NoError(t, err)

	assert.Equal(t, "application/x-www-form-urlencoded; charset=UTF-8", seenContentType)
	assert.Equal(t, form.Encode(), string(seenBody))
}

// TestPerform_Query tests that option query values are appended to the URL.
func TestPerform_Query(t *testing.T) {
	t.Parallel()

	var seenQuery url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(identity.Identity{UserAgent: "Mozilla/5.0 (Test)"}, 0, nil)
	require.NoError(t, err)

	query := url.Values{}
	query.Set("id", "42")

	_, err = client.Get(context.Background(), server.URL+"?page=1", false, &RequestOptions{Query: query})
	require.NoError(t, err)

	assert.Equal(t, "42", seenQuery.Get("id"))
	assert.Equal(t, "1", seenQuery.Get("page"))
}

// TestPerform_MergesResponseCookies tests that Set-Cookie values land in the jar.
func TestPerform_MergesResponseCookies(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "refreshed"})
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(identity.Identity{UserAgent: "Mozilla/5.0 (Test)"}, 0, nil)
	require.NoError(t, err)

	client.SetCookie("session", "stale")

	response, err := client.Get(context.Background(), server.URL, false, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"session": "refreshed"}, response.Cookies)
	assert.Equal(t, map[string]string{"session": "refreshed"}, client.Cookies())
}

// TestPerform_TransportFailure tests the classified transport error.
func TestPerform_TransportFailure(t *testing.T) {
	t.Parallel()

	// A closed server guarantees a connection failure.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	serverURL := server.URL
	server.Close()

	client, err := NewClient(identity.Identity{UserAgent: "Mozilla/5.0 (Test)"}, 0, nil)
	require.NoError(t, err)

	response, err := client.Get(context.Background(), serverURL, false, nil)
	require.ErrorIs(t, err, ErrTransportFailure)
	assert.Nil(t, response)
}

// TestPerform_TimeoutOverride tests that the per-request deadline cuts off a slow server.
func TestPerform_TimeoutOverride(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(identity.Identity{UserAgent: "Mozilla/5.0 (Test)"}, time.Minute, nil)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), server.URL, false, &RequestOptions{
		TimeoutOverride: 20 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrTransportFailure)
}

// TestPerform_DebugCapture tests the request/response capture protocol end to end.
func TestPerform_DebugCapture(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "trace", Value: "t1"})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sink := newRecordingSink()
	recorder := debug.NewRecorder(sink)

	client, err := NewClient(identity.Identity{UserAgent: "Mozilla/5.0 (Test)"}, 0, recorder)
	require.NoError(t, err)

	client.SetCookie("session", "abc")

	_, err = client.Get(context.Background(), server.URL, true, nil)
	require.NoError(t, err)

	// Request half first, full record second, same id.
	require.Equal(t, []uint64{1, 1}, sink.writes)

	record := sink.records[1]
	require.NotNil(t, record)

	assert.Equal(t, http.MethodGet, record.Request.Method)
	assert.Equal(t, server.URL, record.Request.URL)
	assert.Equal(t, "Mozilla/5.0 (Test)", record.Request.Headers["User-Agent"])
	assert.Equal(t, map[string]string{"session": "abc"}, record.Request.Cookies)

	assert.True(t, record.Response.Success)
	assert.Equal(t, http.StatusOK, record.Response.StatusCode)
	assert.Equal(t, `{"ok":true}`, record.Response.BodyText)
	assert.Equal(t, map[string]any{"ok": true}, record.Response.BodyJSON)
	assert.Equal(t, map[string]string{"trace": "t1"}, record.Response.Cookies)
}

// TestPerform_DebugCaptureOnFailure tests the explicit failure marker.
func TestPerform_DebugCaptureOnFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	serverURL := server.URL
	server.Close()

	sink := newRecordingSink()
	recorder := debug.NewRecorder(sink)

	client, err := NewClient(identity.Identity{UserAgent: "Mozilla/5.0 (Test)"}, 0, recorder)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), serverURL, true, nil)
	require.ErrorIs(t, err, ErrTransportFailure)

	record := sink.records[1]
	require.NotNil(t, record)

	assert.False(t, record.Response.Success)
	assert.Zero(t, record.Response.StatusCode)
	assert.NotEmpty(t, record.Response.FailureReason)
}

// TestPerform_NoCaptureWhenDisabled tests that nothing is recorded without the debug flag.
func TestPerform_NoCaptureWhenDisabled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := newRecordingSink()
	recorder := debug.NewRecorder(sink)

	client, err := NewClient(identity.Identity{UserAgent: "Mozilla/5.0 (Test)"}, 0, recorder)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), server.URL, false, nil)
	require.NoError(t, err)

	assert.Empty(t, sink.writes)
}

// TestResponse_JSON tests best-effort JSON decoding of response bodies.
func TestResponse_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		expected map[string]any
	}{
		{
			name:     "valid object",
			body:     `{"a":1}`,
			expected: map[string]any{"a": float64(1)},
		},
		{
			name:     "invalid json",
			body:     "{not json",
			expected: map[string]any{},
		},
		{
			name:     "empty body",
			body:     "",
			expected: map[string]any{},
		},
		{
			name:     "json array is not an object",
			body:     `[1,2,3]`,
			expected: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			response := &Response{Body: []byte(tt.body)}
			assert.Equal(t, tt.expected, response.JSON())
		})
	}
}
