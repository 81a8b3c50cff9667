package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const recordBody = `{"formatVersion":2,"message":"deprecated","fail":false}`

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", `"abc123"`)
		_, _ = w.Write([]byte(recordBody))
	}))
	defer server.Close()

	f := NewFetcher()
	artifact, err := f.Fetch(context.Background(), server.URL+"/lib-1.0-metadata.json")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer func() { _ = artifact.Body.Close() }()

	if artifact.Size != int64(len(recordBody)) {
		t.Errorf("Size = %d, want %d", artifact.Size, len(recordBody))
	}
	if artifact.ContentType != "application/json" {
		t.Errorf("ContentType = %q, want %q", artifact.ContentType, "application/json")
	}
	if artifact.ETag != `"abc123"` {
		t.Errorf("ETag = %q, want %q", artifact.ETag, `"abc123"`)
	}

	body, err := io.ReadAll(artifact.Body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(body) != recordBody {
		t.Errorf("body = %q, want %q", string(body), recordBody)
	}
}

func TestFetchStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusGone, ErrNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusBadGateway, ErrUpstreamDown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f := NewFetcher(WithMaxRetries(0))
			_, err := f.Fetch(context.Background(), server.URL+"/missing.json")
			if !errors.Is(err, tt.want) {
				t.Errorf("Fetch = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFetchRetriesTransientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch attempts.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = w.Write([]byte("success"))
		}
	}))
	defer server.Close()

	f := NewFetcher(WithBaseDelay(10 * time.Millisecond))
	artifact, err := f.Fetch(context.Background(), server.URL+"/maven-metadata.xml")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer func() { _ = artifact.Body.Close() }()

	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestFetchNotFoundIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(WithBaseDelay(time.Millisecond))
	_, _ = f.Fetch(context.Background(), server.URL+"/missing.json")
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1", attempts.Load())
	}
}

func TestFetchMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(WithMaxRetries(2), WithBaseDelay(10*time.Millisecond))
	_, err := f.Fetch(context.Background(), server.URL+"/lib-1.0-metadata.json")
	if !errors.Is(err, ErrUpstreamDown) {
		t.Errorf("expected ErrUpstreamDown, got %v", err)
	}

	// Initial attempt + 2 retries
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestFetchContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte("success"))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	f := NewFetcher()
	if _, err := f.Fetch(ctx, server.URL+"/slow.json"); err == nil {
		t.Error("expected error on context cancellation")
	}
}

func TestHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Method = %s, want HEAD", r.Method)
		}
		if r.URL.Path == "/missing.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", "123")
	}))
	defer server.Close()

	f := NewFetcher()
	size, contentType, err := f.Head(context.Background(), server.URL+"/lib-1.0-metadata.json")
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if size != 123 {
		t.Errorf("size = %d, want 123", size)
	}
	if contentType != "application/json" {
		t.Errorf("contentType = %q, want %q", contentType, "application/json")
	}

	if _, _, err := f.Head(context.Background(), server.URL+"/missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Head = %v, want ErrNotFound", err)
	}
}

func TestRequestHeaders(t *testing.T) {
	var ua, auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewFetcher(WithUserAgent("custom-agent/2.0"), WithBasicAuth("deployer", "s3cret"))
	artifact, err := f.Fetch(context.Background(), server.URL+"/x")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	_ = artifact.Body.Close()

	if ua != "custom-agent/2.0" {
		t.Errorf("User-Agent = %q, want %q", ua, "custom-agent/2.0")
	}
	// base64("deployer:s3cret")
	if auth != "Basic ZGVwbG95ZXI6czNjcmV0" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestBasicAuthEmptyUsername(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	f := NewFetcher(WithBasicAuth("", "ignored"))
	if err := f.Put(context.Background(), server.URL+"/x", []byte("{}"), ""); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if auth != "" {
		t.Errorf("Authorization = %q, want none", auth)
	}
}

func TestPut(t *testing.T) {
	var method, contentType, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	f := NewFetcher()
	err := f.Put(context.Background(), server.URL+"/lib-1.0-metadata.json", []byte(recordBody), "application/json")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if method != http.MethodPut {
		t.Errorf("Method = %s, want PUT", method)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if body != recordBody {
		t.Errorf("body = %q, want %q", body, recordBody)
	}
}

func TestPutErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		if strings.HasSuffix(r.URL.Path, "/denied") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad layout"))
	}))
	defer server.Close()

	f := NewFetcher(WithBaseDelay(time.Millisecond))

	err := f.Put(context.Background(), server.URL+"/denied", nil, "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Put = %v, want ErrUnauthorized", err)
	}

	err = f.Put(context.Background(), server.URL+"/bad", nil, "")
	if err == nil || !strings.Contains(err.Error(), "bad layout") {
		t.Errorf("Put = %v, want body in error", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("attempts = %d, want 2 (client errors are not retried)", attempts.Load())
	}
}

func TestReadAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(recordBody))
	}))
	defer server.Close()

	data, err := ReadAll(context.Background(), NewFetcher(), server.URL+"/x")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != recordBody {
		t.Errorf("ReadAll = %q", data)
	}
}
