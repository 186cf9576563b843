package httpmw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "test-id-123")
	if got := RequestIDFromContext(ctx); got != "test-id-123" {
		t.Fatalf("RequestIDFromContext = %q, want %q", got, "test-id-123")
	}
}

func TestRequestIDFromContext_NoValue(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty string from bare context, got %q", got)
	}
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var ctxID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFromContext(r.Context())
	})

	mw := RequestID("X-Request-Id")
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/", http.NoBody))

	// 16 random bytes hex-encoded
	if len(ctxID) != 32 {
		t.Fatalf("generated ID length = %d, want 32 (%q)", len(ctxID), ctxID)
	}
	if got := rec.Header().Get("X-Request-Id"); got != ctxID {
		t.Fatalf("response header = %q, context = %q", got, ctxID)
	}
}

func TestRequestID_PropagatesExisting(t *testing.T) {
	var ctxID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFromContext(r.Context())
	})

	mw := RequestID("X-Request-Id")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set("X-Request-Id", "upstream-id-abc")

	mw(handler).ServeHTTP(rec, req)

	if ctxID != "upstream-id-abc" {
		t.Fatalf("context ID = %q, want upstream value", ctxID)
	}
}
