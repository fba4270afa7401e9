package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestGTIClientSendSuccess(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")

		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = buf

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"accepted":true}`))
	}))
	defer server.Close()

	client := NewGTIClient(server.URL, "Bearer test-token")

	payload := []byte(`{"event_type":"dispose"}`)
	resp, err := client.Send(context.Background(), "uuid-42", payload)
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Body != `{"accepted":true}` {
		t.Fatalf("Body = %q", resp.Body)
	}
	if gotPath != "/uuid-42" {
		t.Fatalf("path = %q, want /uuid-42", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("authorization = %q, want verbatim configured value", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content-type = %q", gotContentType)
	}
	if string(gotBody) != string(payload) {
		t.Fatalf("body = %q, want %q", gotBody, payload)
	}
}

func TestGTIClientSendNon2xxIsTransient(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		statusCode int
	}{
		{name: "bad gateway", statusCode: http.StatusBadGateway},
		{name: "too many requests", statusCode: http.StatusTooManyRequests},
		{name: "bad request", statusCode: http.StatusBadRequest},
		{name: "not found", statusCode: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			}))
			defer server.Close()

			client := NewGTIClient(server.URL, "Bearer x")
			_, err := client.Send(context.Background(), "uuid-1", []byte(`{}`))
			if err == nil {
				t.Fatal("Send() should fail on non-2xx")
			}

			var postbackErr *PostbackError
			if !errors.As(err, &postbackErr) {
				t.Fatalf("error type = %T, want *PostbackError", err)
			}
			if postbackErr.StatusCode != tc.statusCode {
				t.Fatalf("status = %d, want %d", postbackErr.StatusCode, tc.statusCode)
			}
			if !IsTransient(err) {
				t.Fatal("delivery failures must be transient (retryable)")
			}
		})
	}
}

func TestGTIClientSendUnconfiguredMakesNoHTTPCall(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	testCases := []struct {
		name    string
		baseURL string
		auth    string
	}{
		{name: "missing url", baseURL: "", auth: "Bearer x"},
		{name: "missing auth header", baseURL: server.URL, auth: ""},
		{name: "missing both", baseURL: "", auth: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := NewGTIClient(tc.baseURL, tc.auth)
			if client.Configured() {
				t.Fatal("client should report unconfigured")
			}

			_, err := client.Send(context.Background(), "uuid-1", []byte(`{}`))
			if err == nil {
				t.Fatal("Send() should fail when unconfigured")
			}
			if IsTransient(err) {
				t.Fatal("configuration errors must be permanent, not retried")
			}
		})
	}

	if calls.Load() != 0 {
		t.Fatalf("unconfigured client made %d HTTP calls, want 0", calls.Load())
	}
}

func TestGTIClientSendNetworkErrorIsTransient(t *testing.T) {
	t.Parallel()

	// Connection refused: reserved port on localhost that nothing listens on.
	client := NewGTIClient("http://127.0.0.1:1", "Bearer x")

	_, err := client.Send(context.Background(), "uuid-1", []byte(`{}`))
	if err == nil {
		t.Fatal("Send() should fail on connection error")
	}
	if !IsTransient(err) {
		t.Fatal("network errors must be transient")
	}
}

func TestIsTransientClassification(t *testing.T) {
	t.Parallel()

	if IsTransient(nil) {
		t.Fatal("nil error is not transient")
	}
	if !IsTransient(context.DeadlineExceeded) {
		t.Fatal("deadline exceeded is transient")
	}
	if IsTransient(context.Canceled) {
		t.Fatal("cancellation is not transient")
	}
	if IsTransient(errors.New("plain")) {
		t.Fatal("unclassified errors are not transient")
	}
	if !IsTransient(fakeNetError{timeout: true}) {
		t.Fatal("net timeouts are transient")
	}
	if IsTransient(fakeNetError{timeout: false}) {
		t.Fatal("non-timeout net errors without a postback classification are not transient")
	}
}

type fakeNetError struct {
	timeout bool
}

func (e fakeNetError) Error() string   { return "fake net error" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }
