package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	LoggingMiddleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestLoggingMiddlewareSkipsUpgrades(t *testing.T) {
	var gotWriter http.ResponseWriter
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWriter = w
	})

	req := httptest.NewRequest(http.MethodGet, "/ws/chat", nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	LoggingMiddleware(next).ServeHTTP(rec, req)

	if _, wrapped := gotWriter.(*statusRecorder); wrapped {
		t.Fatal("expected upgrade requests to keep the raw response writer")
	}
}

func TestH2CHandler(t *testing.T) {
	h := H2CHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
