package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetBytesRetriesOnRetriableStatusThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	session := New("weatherfusion-test/1.0")
	session.backoff = Backoff{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 10 * time.Millisecond}

	data, err := session.GetBytes(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetBytes: %v", err)
	}
	if string(data) != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", string(data))
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestGetBytesReturnsErrorOnNonRetriableStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	session := New("weatherfusion-test/1.0")
	_, err := session.GetBytes(context.Background(), server.URL)
	if err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestGetRangeSendsRangeHeader(t *testing.T) {
	var gotRange string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.Write([]byte("slice"))
	}))
	defer server.Close()

	session := New("weatherfusion-test/1.0")
	if _, err := session.GetRange(context.Background(), server.URL, 10, 20); err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if gotRange != "bytes=10-20" {
		t.Fatalf("expected Range header %q, got %q", "bytes=10-20", gotRange)
	}
}

func TestHeadIssuesHeadRequest(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	defer server.Close()

	session := New("weatherfusion-test/1.0")
	resp, err := session.Head(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	resp.Body.Close()
	if method != http.MethodHead {
		t.Fatalf("expected HEAD method, got %s", method)
	}
}
