package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"barberbot/models"
	"barberbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageHandler answers one inbound message; it must not panic.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg models.InboundMessage)
}

// SenderLimiter throttles messages per Messenger sender.
type SenderLimiter interface {
	Allow(key string) bool
}

type WebhookHandler struct {
	assistant   MessageHandler
	limiter     SenderLimiter
	verifyToken string
	deadline    time.Duration
	inflight    sync.WaitGroup
}

// NewWebhookHandler wires the Messenger webhook. limiter may be nil.
func NewWebhookHandler(assistant MessageHandler, limiter SenderLimiter, verifyToken string, deadline time.Duration) *WebhookHandler {
	return &WebhookHandler{
		assistant:   assistant,
		limiter:     limiter,
		verifyToken: verifyToken,
		deadline:    deadline,
	}
}

// VerifyWebhook answers Messenger's subscription handshake.
func (h *WebhookHandler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token == "" || token != h.verifyToken {
		utils.JSONError(c, http.StatusForbidden, "Webhook verification failed", "mode="+mode)
		return
	}
	c.String(http.StatusOK, challenge)
}

// ReceiveWebhook acknowledges a delivery at once and answers each text
// message in the background under the request deadline.
func (h *WebhookHandler) ReceiveWebhook(c *gin.Context) {
	logger := getLogger(c)

	var event models.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		logger.Warn("Invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	if event.Object != "page" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unsupported object"})
		return
	}

	for _, msg := range event.TextMessages() {
		if h.limiter != nil && !h.limiter.Allow(msg.SenderID) {
			logger.Warn("Sender rate limit exceeded, dropping message",
				zap.String("userID", msg.SenderID), zap.String("mid", msg.MessageID))
			continue
		}
		h.dispatch(msg)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WebhookHandler) dispatch(msg models.InboundMessage) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		ctx := context.Background()
		if h.deadline > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.deadline)
			defer cancel()
		}
		h.assistant.HandleMessage(ctx, msg)
	}()
}

// Wait blocks until every dispatched message has been handled.
func (h *WebhookHandler) Wait() {
	h.inflight.Wait()
}
