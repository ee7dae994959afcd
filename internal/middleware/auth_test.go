package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newKeyedRouter(key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.Use(FunctionKey(key))
	router.Any("/copilotkit", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestFunctionKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		method   string
		target   string
		header   string
		expected int
	}{
		{name: "disabled", key: "", method: "POST", target: "/copilotkit", expected: http.StatusOK},
		{name: "missing key", key: "secret", method: "POST", target: "/copilotkit", expected: http.StatusUnauthorized},
		{name: "wrong header", key: "secret", method: "POST", target: "/copilotkit", header: "nope", expected: http.StatusUnauthorized},
		{name: "header", key: "secret", method: "POST", target: "/copilotkit", header: "secret", expected: http.StatusOK},
		{name: "query code", key: "secret", method: "GET", target: "/copilotkit?code=secret", expected: http.StatusOK},
		{name: "preflight bypass", key: "secret", method: "OPTIONS", target: "/copilotkit", expected: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newKeyedRouter(tt.key)

			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(FunctionKeyHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Body.String(), "Internal server error")
	assert.NotContains(t, w.Body.String(), "boom")
}
