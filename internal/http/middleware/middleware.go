package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"tel_handoff_backend/platform/httpkit"
	"tel_handoff_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns panics into a JSON 500 and logs them with the request context.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithContext(c.Request.Context()).Error("panic recovered",
					"path", c.Request.URL.Path,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, httpkit.ErrorResponse{Error: "internal error"})
			}
		}()
		c.Next()
	}
}
