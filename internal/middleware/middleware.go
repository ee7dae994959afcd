package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery recovers from panics in gin handlers and answers with the same
// JSON envelope as the serverless error path.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logrus.WithFields(logrus.Fields{
			"panic":      recovered,
			"stack":      string(debug.Stack()),
			"request_id": c.GetString(RequestIDKey),
			"path":       c.Request.URL.Path,
		}).Error("Recovered from panic")

		for k, v := range ErrorPathHeaders() {
			c.Header(k, v)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "Internal server error",
			Message:   "An internal error occurred",
			RequestID: c.GetString(RequestIDKey),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	})
}

// NoRoute answers unknown paths with a JSON 404
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "Not found",
			RequestID: c.GetString(RequestIDKey),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
