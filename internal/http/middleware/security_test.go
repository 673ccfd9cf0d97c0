package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	w := httptest.NewRecorder()
	securityRouter(SecurityOptions{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	h := w.Header()
	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if got := h.Get(k); got != v {
			t.Fatalf("%s = %q, want %q", k, got, v)
		}
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if h.Get(k) != "" {
			t.Fatalf("%s should be unset, got %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	securityRouter(SecurityOptions{}, RequestID()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != requestIDHeader {
		t.Fatalf("expose = %q", got)
	}

	appendExisting := func(c *gin.Context) {
		c.Header("Access-Control-Expose-Headers", "ETag")
		c.Next()
	}
	w = httptest.NewRecorder()
	securityRouter(SecurityOptions{}, RequestID(), appendExisting).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "ETag, "+requestIDHeader {
		t.Fatalf("expose = %q", got)
	}
}

func TestSecurityHeaders_PolicyNoStoreAndHSTS(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour, NoStore: true, EnablePolicy: true}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.TLS = &tls.ConnectionState{}
	securityRouter(opt).ServeHTTP(w, req)

	h := w.Header()
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %v", h)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("no-store headers missing: %v", h)
	}
	if got := h.Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains; preload" {
		t.Fatalf("hsts = %q", got)
	}

	// Plain HTTP never gets HSTS.
	w = httptest.NewRecorder()
	securityRouter(opt).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("hsts over http = %q", got)
	}
}

func TestSecurityHeaders_DefaultHSTSAgeViaProxy(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	securityRouter(SecurityOptions{EnableHSTS: true}).ServeHTTP(w, req)

	want := "max-age=" + strconv.Itoa(180*24*3600) + "; includeSubDomains; preload"
	if got := w.Header().Get("Strict-Transport-Security"); got != want {
		t.Fatalf("hsts = %q, want %q", got, want)
	}
}
