package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByAccountAndParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	var key string
	r.POST("/service-instances/:id/rating", func(c *gin.Context) {
		c.Set(accountIDContextKey, uint(42))
		c.Set(accountRoleContextKey, "customer")
		key = KeyByAccountAndParam("id")(c)
		c.Status(http.StatusNoContent)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/service-instances/9/rating", nil))
	if key != "customer:42|9" {
		t.Fatalf("key want customer:42|9 got %s", key)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/rating", nil)
	c.Request.RemoteAddr = "1.2.3.4:5678"
	if got := KeyByAccount(c); got != "1.2.3.4" {
		t.Fatalf("anonymous key want client ip got %s", got)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestRateLimitHelpers(t *testing.T) {
	cases := []struct {
		ttl    int64
		window int
		want   int
	}{
		{ttl: 42, window: 60, want: 42},
		{ttl: -1, window: 60, want: 60},
		{ttl: -2, window: 0, want: 1},
	}
	for _, tc := range cases {
		if got := retryAfterSeconds(tc.ttl, tc.window); got != tc.want {
			t.Fatalf("retry after ttl=%d window=%d want %d got %d", tc.ttl, tc.window, tc.want, got)
		}
	}
	if got := remaining(5, 7); got != 0 {
		t.Fatalf("remaining over limit want 0 got %d", got)
	}
	if got := remaining(5, 2); got != 3 {
		t.Fatalf("remaining want 3 got %d", got)
	}

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/staff/invoices", nil)
	c.Request.RemoteAddr = "10.0.0.8:4000"
	rule := RateLimitRule{Prefix: "pc:rate:write"}
	if got := rule.key(c, nil); got != "pc:rate:write:10.0.0.8" {
		t.Fatalf("key without func want ip key got %s", got)
	}
}
