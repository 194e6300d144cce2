package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/class-record-api/internal/models"
	"github.com/acadsys/class-record-api/internal/repository"
)

// Audit records an audit log after successful mutating requests. Requests
// without authenticated claims are skipped.
func Audit(repo *repository.UserRepository, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		claimsValue, ok := c.Get(ContextUserKey)
		if !ok {
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			return
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})
		payload := string(body)
		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")

		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		_ = repo.CreateAuditLog(c.Request.Context(), &models.AuditLog{
			UserID:     claims.UserID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  &payload,
			IPAddress:  &ip,
			UserAgent:  &userAgent,
		})
	}
}
