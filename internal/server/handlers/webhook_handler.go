package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/internal/domain/models"
	"github.com/mamadbah2/viberbot/internal/service/bot"
	"github.com/mamadbah2/viberbot/internal/service/outbound"
	"github.com/mamadbah2/viberbot/pkg/clients/viber"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/errs"
)

// WebhookHandler handles inbound Viber callbacks and operator HTTP requests.
type WebhookHandler struct {
	svc    bot.MessagingService
	logger *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter.
func NewWebhookHandler(svc bot.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// Receive ingests webhook POST callbacks from Viber. The body is read raw
// since the signature covers the exact bytes.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("failed reading webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err = h.svc.HandleWebhook(c.Request.Context(), body, c.GetHeader(viber.SignatureHeader))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, bot.ErrInvalidSignature):
		h.logger.Warn("webhook signature mismatch", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
	case errors.Is(err, bot.ErrInvalidPayload):
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
	default:
		h.logger.Error("failed processing webhook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process webhook"})
	}
}

// SendMessage allows operators to push a text message to one user.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tokens, err := h.svc.SendOutbound(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("failed sending outbound", zap.String("to", req.To), zap.Error(err))
		c.JSON(sendFailureStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message_tokens": tokens})
}

// Broadcast sends a text message to every active subscriber.
func (h *WebhookHandler) Broadcast(c *gin.Context) {
	var req models.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid broadcast payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tokens, err := h.svc.Broadcast(c.Request.Context(), req.Text)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"message_tokens": tokens})
	case errors.Is(err, outbound.ErrNoSubscribers):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed broadcasting", zap.Error(err))
		c.JSON(sendFailureStatus(err), gin.H{"error": err.Error(), "message_tokens": tokens})
	}
}

func sendFailureStatus(err error) int {
	switch errs.Code(err) {
	case errs.CodeValidation:
		return http.StatusBadRequest
	case errs.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
