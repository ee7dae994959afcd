package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"copilot-runtime-function/internal/adapters/bridge"
	"copilot-runtime-function/internal/config"
	"copilot-runtime-function/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func newTestRouter(cfg *config.Config, runtime bridge.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery())
	SetupRoutes(router, NewRuntimeHandler(cfg, runtime), NewHealthHandler(cfg, nil), cfg)
	return router
}

func TestRoutesHealth(t *testing.T) {
	router := newTestRouter(testConfig("development"), okRuntime())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", HealthPath, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", gjson.Get(w.Body.String(), "status").String())
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
}

func TestRoutesRuntime(t *testing.T) {
	router := newTestRouter(testConfig("development"), bridge.FromHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "a", Value: "1"})
		http.SetCookie(w, &http.Cookie{Name: "b", Value: "2"})
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok " + r.URL.Path))
	})))

	t.Run("round trip", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", RuntimePath+"/info", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "ok /copilotkit/info", w.Body.String())
		assert.Len(t, w.Header().Values("Set-Cookie"), 2)
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("oversized", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", RuntimePath, strings.NewReader(strings.Repeat("x", 4096))))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("method", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("PUT", RuntimePath, nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, middleware.AllowedMethods, w.Header().Get("Allow"))
	})

	t.Run("non-standard method", func(t *testing.T) {
		for _, target := range []string{RuntimePath, RuntimePath + "/info"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("PROPFIND", target, nil))

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code, target)
			assert.Equal(t, middleware.AllowedMethods, w.Header().Get("Allow"), target)
			assert.True(t, gjson.Get(w.Body.String(), "error").Exists(), target)
		}
	})

	t.Run("health wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", HealthPath, nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
