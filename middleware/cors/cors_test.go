package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware_PreflightShortCircuits(t *testing.T) {
	called := false
	h := Middleware(Options{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "http://example/api/posts", nil))

	if called {
		t.Fatalf("expected OPTIONS not to reach the handler")
	}
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Fatalf("unexpected methods header %q", got)
	}
}

func TestMiddleware_StampsErrorResponses(t *testing.T) {
	h := Middleware(Options{Origins: []string{"https://blog.example"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://blog.example" {
		t.Fatalf("unexpected origin header %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Fatalf("unexpected headers header %q", got)
	}
}

func TestMiddleware_EchoesAllowedOriginFromList(t *testing.T) {
	h := Middleware(Options{Origins: []string{"https://a.example", "https://b.example"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "http://example/api/posts", nil)
	r.Header.Set("Origin", "https://b.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://b.example" {
		t.Fatalf("expected matching origin to be echoed, got %q", got)
	}
	if got := w.Header().Get("Vary"); got == "" {
		t.Fatalf("expected Vary header")
	}

	r = httptest.NewRequest(http.MethodGet, "http://example/api/posts", nil)
	r.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no origin for a refused origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Fatalf("methods must still be stamped, got %q", got)
	}
}

func TestMiddleware_BrowserPreflightKeepsFixedHeaders(t *testing.T) {
	called := false
	h := Middleware(Options{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodOptions, "http://example/api/posts/1/comments", nil)
	r.Header.Set("Origin", "https://blog.example")
	r.Header.Set("Access-Control-Request-Method", "POST")
	r.Header.Set("Access-Control-Request-Headers", "authorization")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if called {
		t.Fatalf("expected preflight not to reach the handler")
	}
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected origin header %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Fatalf("unexpected headers header %q", got)
	}
}
