package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FunctionKeyHeader is the header a caller uses to present the function key
const FunctionKeyHeader = "x-functions-key"

// FunctionKey emulates the host's function-level auth for local runs. The key
// is read from the x-functions-key header or the "code" query parameter. An
// empty key disables the check. CORS preflights are let through so browsers
// can negotiate before sending credentials.
func FunctionKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		presented := c.GetHeader(FunctionKeyHeader)
		if presented == "" {
			presented = c.Query("code")
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(RequestIDKey),
				"path":       c.Request.URL.Path,
				"client_ip":  c.ClientIP(),
			}).Warn("Function key missing or invalid")

			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:     "Unauthorized",
				Message:   "A valid function key is required",
				RequestID: c.GetString(RequestIDKey),
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			return
		}

		c.Next()
	}
}
