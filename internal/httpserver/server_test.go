package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cospark/hubspot-proxy/internal/log"
)

// defaultOpts returns minimal valid Options for testing.
func defaultOpts() *Options {
	return &Options{
		Logger:         log.Nop(),
		AllowedOrigins: []string{"https://cospark.io"},
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, origin string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, http.NoBody)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	h.ServeHTTP(rec, req)
	return rec
}

// getFreePort finds a free TCP port.
func getFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp4", ":0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func TestNewHandler_DeniesUnlistedOriginOnEveryPath(t *testing.T) {
	h := NewHandler(defaultOpts())

	for _, tc := range []struct {
		method, path, origin string
	}{
		{"POST", "/contacts", "https://evil.example"},
		{"GET", "/health", "https://evil.example"},
		{"GET", "/health", ""},
		{"DELETE", "/anything", "https://evil.example"},
	} {
		rec := doRequest(t, h, tc.method, tc.path, tc.origin)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s origin=%q: status = %d, want 403", tc.method, tc.path, tc.origin, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("403 body not JSON: %v", err)
		}
		if body["error"] != "Forbidden" {
			t.Errorf("403 body = %v", body)
		}
	}
}

func TestNewHandler_PreflightShortCircuits(t *testing.T) {
	opts := defaultOpts()
	opts.APIRoutes = nil
	h := NewHandler(opts)

	rec := doRequest(t, h, http.MethodOptions, "/contacts", "https://cospark.io")
	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://cospark.io" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Fatalf("Access-Control-Allow-Methods = %q", got)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("preflight body = %q, want empty", rec.Body.String())
	}
}

func TestNewHandler_RequestIDHeader(t *testing.T) {
	h := NewHandler(defaultOpts())
	rec := doRequest(t, h, http.MethodGet, "/whatever", "https://cospark.io")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("X-Request-Id not set")
	}
}

func TestNewHandler_RecoverServes500(t *testing.T) {
	panicked := false
	opts := defaultOpts()
	opts.UseRecoverMW = true
	opts.OnPanic = func() { panicked = true }
	opts.APIRoutes = func(r chi.Router) {
		r.Get("/boom", func(http.ResponseWriter, *http.Request) {
			panic("kaboom")
		})
	}
	h := NewHandler(opts)

	rec := doRequest(t, h, http.MethodGet, "/boom", "https://cospark.io")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !panicked {
		t.Fatal("OnPanic not called")
	}
	if !strings.Contains(rec.Body.String(), "Internal server error") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestStartAndStop(t *testing.T) {
	opts := defaultOpts()
	opts.Port = getFreePort(t)

	stop, err := Start(context.Background(), opts)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// second stop is a no-op
	if err := stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
