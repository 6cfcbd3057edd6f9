package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"barberbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const signatureHeader = "X-Hub-Signature-256"

// maxWebhookBody bounds the body read for signature checks.
const maxWebhookBody = 1 << 20

// ValidSignature reports whether header is "sha256=<hex HMAC-SHA256 of body>"
// under appSecret.
func ValidSignature(appSecret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// VerifyMessengerSignature rejects webhook deliveries not signed with the app
// secret. An empty secret disables the check.
func VerifyMessengerSignature(appSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appSecret == "" {
			c.Next()
			return
		}
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, utils.ErrorResponse{Message: "Unreadable body"})
			return
		}
		if !ValidSignature(appSecret, body, c.GetHeader(signatureHeader)) {
			utils.GetLogger().Warn("Webhook signature mismatch", zap.String("ip", getClientIP(c)))
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{Message: "Invalid signature"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
