package cache

import (
	"errors"
	"testing"
	"time"
)

func TestFetchWritesOnMissAndReusesWhileFresh(t *testing.T) {
	mgr, err := New(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	calls := 0
	downloader := func() ([]byte, error) {
		calls++
		return []byte("payload"), nil
	}

	first, err := mgr.Fetch("ns", "key", downloader)
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	if first.Fresh {
		t.Fatalf("expected first fetch to report Fresh=false")
	}

	second, err := mgr.Fetch("ns", "key", downloader)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if !second.Fresh {
		t.Fatalf("expected second fetch to report Fresh=true")
	}
	if calls != 1 {
		t.Fatalf("expected downloader invoked once, got %d", calls)
	}
}

func TestFetchZeroTTLAlwaysRedownloads(t *testing.T) {
	mgr, err := New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	calls := 0
	downloader := func() ([]byte, error) {
		calls++
		return []byte("x"), nil
	}
	if _, err := mgr.Fetch("ns", "key", downloader); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, err := mgr.Fetch("ns", "key", downloader); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected downloader invoked twice with zero TTL, got %d", calls)
	}
}

func TestFetchPropagatesDownloaderError(t *testing.T) {
	mgr, err := New(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	wantErr := errors.New("boom")
	_, err = mgr.Fetch("ns", "key", func() ([]byte, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected downloader error to propagate, got %v", err)
	}
}

func TestReadBytesReturnsCachedContent(t *testing.T) {
	mgr, err := New(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := mgr.ReadBytes("ns", "key", func() ([]byte, error) { return []byte("hello"), nil })
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", string(data))
	}
}

func TestOverwriteForcesNewContent(t *testing.T) {
	mgr, err := New(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := mgr.ReadBytes("ns", "key", func() ([]byte, error) { return []byte("first"), nil }); err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if _, err := mgr.Overwrite("ns", "key", []byte("second")); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}
	data, err := mgr.ReadBytes("ns", "key", func() ([]byte, error) { return []byte("unused"), nil })
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("expected overwritten content %q, got %q", "second", string(data))
	}
}
