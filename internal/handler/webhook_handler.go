package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicer/internal/models"
	"invoicer/internal/repository"
	"invoicer/internal/request"
	"invoicer/internal/service"
)

// WebhookHandler receives out-of-band confirmations from payment
// processors, settling payments and refunds that were left in flight.
type WebhookHandler struct {
	payments *service.PaymentService
	refunds  *repository.RefundRepository
	deps     request.Deps
	secret   string
	log      zerolog.Logger
}

func NewWebhookHandler(payments *service.PaymentService, refunds *repository.RefundRepository, deps request.Deps, secret string, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{payments: payments, refunds: refunds, deps: deps, secret: secret, log: log}
}

type webhookPayload struct {
	Event         string `json:"event"`
	TransactionID string `json:"transaction_id"`
	RefundRef     string `json:"refund_ref"`
	Fee           int64  `json:"fee"`
	FailMsg       string `json:"fail_msg"`
	FailCode      string `json:"fail_code"`
}

// Handle processes POST /api/v1/webhooks/payment. The signature covers the
// raw body; an unsigned or mis-signed call is dropped before parsing.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !h.verifySignature(body, c.GetHeader("X-Signature")) {
		h.log.Warn().Str("ip", c.ClientIP()).Msg("webhook signature rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	switch payload.Event {
	case "payment.completed":
		h.paymentCompleted(c, payload)
	case "payment.failed":
		h.paymentFailed(c, payload)
	case "refund.completed":
		h.refundCompleted(c, payload)
	default:
		// Unknown events are acknowledged so the processor stops retrying.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *WebhookHandler) paymentCompleted(c *gin.Context, payload webhookPayload) {
	payment, err := h.payments.GetByTransactionID(payload.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown transaction"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return
	}

	// Replays of an already-settled payment are acknowledged untouched.
	if payment.Status == models.PaymentStatusComplete {
		c.JSON(http.StatusOK, gin.H{"status": "already complete"})
		return
	}
	if payment.Status != models.PaymentStatusProcessing && payment.Status != models.PaymentStatusSentForAuth {
		c.JSON(http.StatusConflict, gin.H{"error": "payment is " + payment.Status})
		return
	}

	if err := h.deps.CompletePayment(payment, payload.TransactionID, payload.Fee); err != nil {
		h.log.Error().Err(err).Str("payment", payment.Ref).Msg("webhook completion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "completion failed"})
		return
	}
	h.log.Info().Str("payment", payment.Ref).Msg("payment completed via webhook")
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (h *WebhookHandler) paymentFailed(c *gin.Context, payload webhookPayload) {
	payment, err := h.payments.GetByTransactionID(payload.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown transaction"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return
	}
	if payment.Status == models.PaymentStatusFailed {
		c.JSON(http.StatusOK, gin.H{"status": "already failed"})
		return
	}

	if err := h.deps.FailPayment(payment, payload.FailMsg, payload.FailCode); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "failed"})
}

func (h *WebhookHandler) refundCompleted(c *gin.Context, payload webhookPayload) {
	refund, err := h.refunds.GetByRef(payload.RefundRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown refund"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return
	}
	if refund.Status == models.RefundStatusComplete {
		c.JSON(http.StatusOK, gin.H{"status": "already complete"})
		return
	}

	if err := h.deps.CompleteRefund(refund, payload.TransactionID, payload.Fee); err != nil {
		h.log.Error().Err(err).Str("refund", refund.Ref).Msg("webhook refund completion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "completion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}
