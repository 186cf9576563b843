package httpmw

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://cospark.co", "https://www.cospark.co"}
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{"verbatim member", "https://cospark.co", allowed, true},
		{"second member", "https://www.cospark.co", allowed, true},
		{"not a member", "https://evil.example", allowed, false},
		{"subdomain is not a member", "https://app.cospark.co", allowed, false},
		{"absent origin", "", allowed, false},
		{"wildcard allows any present origin", "https://anything.example", []string{"*"}, true},
		{"wildcard still rejects absent origin", "", []string{"*"}, false},
		{"empty allow-list", "https://cospark.co", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OriginAllowed(tt.origin, tt.allowed); got != tt.want {
				t.Fatalf("OriginAllowed(%q, %v) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
			}
		})
	}
}

func corsHandler(allowed []string, onDenied func(string)) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return CORS(CORSOptions{AllowedOrigins: allowed, OnDenied: onDenied})(next)
}

func TestCORS_DeniedOrigin(t *testing.T) {
	var denied string
	h := corsHandler([]string{"https://cospark.co"}, func(o string) { denied = o })

	req := httptest.NewRequest(http.MethodPost, "/contacts", http.NoBody)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("ACAO = %q on denied request, want absent", got)
	}
	if denied != "https://evil.example" {
		t.Fatalf("OnDenied saw %q", denied)
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("403 body is not JSON: %v", err)
	}
	if body.Error != "Forbidden" || body.Message != "Origin not allowed" {
		t.Fatalf("403 body = %+v", body)
	}
}

func TestCORS_AbsentOriginDeniedEvenWithWildcard(t *testing.T) {
	h := corsHandler([]string{"*"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for absent Origin", rec.Code)
	}
}

func TestCORS_EchoesOriginOnAllowed(t *testing.T) {
	h := corsHandler([]string{"https://cospark.co"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("Origin", "https://cospark.co")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://cospark.co" {
		t.Fatalf("ACAO = %q, want echoed origin", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("Vary = %q, want Origin", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := corsHandler([]string{"https://cospark.co"}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/contacts", http.NoBody)
	req.Header.Set("Origin", "https://cospark.co")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("preflight body = %q, want empty", rec.Body.String())
	}
	headers := map[string]string{
		"Access-Control-Allow-Origin":  "https://cospark.co",
		"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization, X-Requested-With",
		"Access-Control-Max-Age":       "86400",
	}
	for k, want := range headers {
		if got := rec.Header().Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestCORS_PreflightDenied(t *testing.T) {
	h := corsHandler([]string{"https://cospark.co"}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/contacts", http.NoBody)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "" {
		t.Fatalf("allow-methods = %q on denied preflight", got)
	}
}
