package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	keyFunc := KeyByIPAndJSONField("username")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"OPS-Admin","password":"x"}`))
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := keyFunc(c)
	if key != "ops-admin|1.2.3.4" {
		t.Fatalf("key want ops-admin|1.2.3.4 got %s", key)
	}

	// body 必须可被后续 handler 再次读取
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("reread body failed: %v", err)
	}
	if !strings.Contains(string(body), "OPS-Admin") {
		t.Fatalf("body should be restored after key extraction, got %s", string(body))
	}
}

func TestKeyByIPAndJSONFieldMissingField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	keyFunc := KeyByIPAndJSONField("username")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"password":"x"}`))
	c.Request.RemoteAddr = "1.2.3.4:5678"

	if key := keyFunc(c); key != "1.2.3.4" {
		t.Fatalf("missing field should fall back to client ip, got %s", key)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{
		Prefix:        "nb:rate:test",
		WindowSeconds: 60,
		MaxRequests:   5,
	}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("nil client should pass through, status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("handler should run, body %s", w.Body.String())
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{"int64", int64(7), 7, true},
		{"int", 3, 3, true},
		{"float64", float64(9), 9, true},
		{"string", "10", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tc := range cases {
		got, ok := toInt64(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: want (%d,%v) got (%d,%v)", tc.name, tc.want, tc.ok, got, ok)
		}
	}
}
