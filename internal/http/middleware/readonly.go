package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadOnly rejects every request in the group while the server runs on the
// bundled sample data.
func ReadOnly(demo bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !demo {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"code":    "DEMO_MODE",
				"message": "Demo mode is read-only",
			},
		})
	}
}
