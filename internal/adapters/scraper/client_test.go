package scraper_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reviewlens/internal/adapters/scraper"
	"reviewlens/internal/domain"
)

func TestClient_Analyze_PostsContractBody(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"business_name": "Clinica Feliz",
			"reviews":       []any{},
		})
	}))
	defer ts.Close()

	cl, err := scraper.New(ts.URL+"/analyze", scraper.Options{Timeout: time.Second, Limit: 50, RPS: 100})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	out, err := cl.Analyze(context.Background(), "https://maps.example/place/x")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out["business_name"] != "Clinica Feliz" {
		t.Fatalf("unexpected payload: %+v", out)
	}
	if got["maps_url"] != "https://maps.example/place/x" || got["forceUpdate"] != false || got["limit"] != float64(50) {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestClient_Analyze_NonOKPassesStatusThrough(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer ts.Close()

	cl, _ := scraper.New(ts.URL, scraper.Options{Timeout: time.Second, RPS: 100})
	_, err := cl.Analyze(context.Background(), "u")

	var se *domain.UpstreamStatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected UpstreamStatusError, got %v", err)
	}
	if se.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", se.Status)
	}
	if len(se.Body) != 500 {
		t.Fatalf("body not truncated to 500, got %d", len(se.Body))
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected a single call (no retries), got %d", n)
	}
}

func TestClient_Analyze_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	cl, _ := scraper.New(ts.URL, scraper.Options{Timeout: 50 * time.Millisecond, RPS: 100})
	_, err := cl.Analyze(context.Background(), "u")
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
}

func TestClient_Analyze_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	cl, _ := scraper.New("http://"+addr+"/analyze", scraper.Options{Timeout: time.Second, RPS: 100})
	_, err = cl.Analyze(context.Background(), "u")
	if !errors.Is(err, domain.ErrUpstreamUnreachable) {
		t.Fatalf("expected ErrUpstreamUnreachable, got %v", err)
	}
}

func TestClient_Analyze_BadJSONIsTransformError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	cl, _ := scraper.New(ts.URL, scraper.Options{Timeout: time.Second, RPS: 100})
	_, err := cl.Analyze(context.Background(), "u")
	if !errors.Is(err, domain.ErrTransform) {
		t.Fatalf("expected ErrTransform, got %v", err)
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	if _, err := scraper.New("  ", scraper.Options{}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}
