package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newCORSServer(origins ...string) *echo.Echo {
	e := echo.New()
	e.Use(CORS(CORSConfig{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{echo.HeaderContentType},
		ExposeHeaders: []string{echo.HeaderRetryAfter},
		MaxAgeSeconds: 600,
	}))
	e.GET("/api/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}

func send(e *echo.Echo, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/health", nil)
	if origin != "" {
		req.Header.Set(echo.HeaderOrigin, origin)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowedOrigin(t *testing.T) {
	e := newCORSServer("http://localhost:3000")
	rec := send(e, http.MethodGet, "http://localhost:3000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	h := rec.Header()
	if h.Get(echo.HeaderAccessControlAllowOrigin) != "http://localhost:3000" {
		t.Fatalf("allow origin %q", h.Get(echo.HeaderAccessControlAllowOrigin))
	}
	if h.Get(echo.HeaderAccessControlExposeHeaders) != echo.HeaderRetryAfter {
		t.Fatalf("expose headers %q", h.Get(echo.HeaderAccessControlExposeHeaders))
	}
	if h.Get(echo.HeaderVary) != echo.HeaderOrigin {
		t.Fatalf("vary %q", h.Get(echo.HeaderVary))
	}
}

func TestCORSUnknownOriginGetsNoHeaders(t *testing.T) {
	e := newCORSServer("http://localhost:3000")
	rec := send(e, http.MethodGet, "http://evil.example")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newCORSServer("http://localhost:3000")
	rec := send(e, http.MethodOptions, "http://localhost:3000")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	h := rec.Header()
	if h.Get(echo.HeaderAccessControlAllowMethods) != "GET, POST" {
		t.Fatalf("methods %q", h.Get(echo.HeaderAccessControlAllowMethods))
	}
	if h.Get(echo.HeaderAccessControlMaxAge) != "600" {
		t.Fatalf("max age %q", h.Get(echo.HeaderAccessControlMaxAge))
	}
}

func TestCORSWildcardEchoesOrigin(t *testing.T) {
	e := newCORSServer("*")
	rec := send(e, http.MethodGet, "http://anywhere.local")
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://anywhere.local" {
		t.Fatalf("allow origin %q", got)
	}
}
