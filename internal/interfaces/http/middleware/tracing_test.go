package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTracingWithConfig_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	engine.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_PassesRequestThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Tracing())
	engine.Use(SpanErrorMarker())
	engine.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	engine.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for _, path := range []string{"/ok", "/missing"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		engine.ServeHTTP(w, req)
		if path == "/ok" {
			assert.Equal(t, http.StatusOK, w.Code)
		} else {
			assert.Equal(t, http.StatusNotFound, w.Code)
		}
	}
}

func TestTraceRequestID_TruncatesLongHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Request-ID", strings.Repeat("a", 500))

	id := traceRequestID(c)
	assert.Len(t, id, MaxRequestIDLength)
}

func TestTraceRequestID_PrefersContextValue(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	c.Set("request_id", "ctx-id")
	c.Request.Header.Set("X-Request-ID", "header-id")

	assert.Equal(t, "ctx-id", traceRequestID(c))
}
