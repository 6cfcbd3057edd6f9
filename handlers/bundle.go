// File: handlers/bundle.go
package handlers

import (
	"net/http"

	"barberbot/utils"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the endpoint handlers the router registers.
type HandlerBundle struct {
	// Messenger webhook
	VerifyWebhook  gin.HandlerFunc
	ReceiveWebhook gin.HandlerFunc

	// Middleware applied to POST /webhook only
	WebhookMiddleware []gin.HandlerFunc

	Health gin.HandlerFunc
}

// HealthHandler reports liveness plus the last backing-service snapshot.
// The process stays live when a dependency is down, so the status code is always 200.
func HealthHandler(c *gin.Context) {
	status := "ok"
	snapshot := utils.GetHealthStatus()
	if !snapshot.Healthy() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "message": "Hi, I'm SecretarBOT", "dependencies": snapshot})
}
