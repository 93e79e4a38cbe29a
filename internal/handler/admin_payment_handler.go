package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicer/internal/models"
	"invoicer/internal/request"
	"invoicer/internal/service"
	"invoicer/pkg/driver"
)

// AdminPaymentHandler exposes payment management to authenticated staff.
type AdminPaymentHandler struct {
	payments *service.PaymentService
	refunds  *service.RefundService
	deps     request.Deps
	log      zerolog.Logger
}

func NewAdminPaymentHandler(payments *service.PaymentService, refunds *service.RefundService, deps request.Deps, log zerolog.Logger) *AdminPaymentHandler {
	return &AdminPaymentHandler{payments: payments, refunds: refunds, deps: deps, log: log}
}

// ListByInvoice handles GET /api/v1/admin/invoices/:id/payments.
func (h *AdminPaymentHandler) ListByInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	payments, err := h.payments.ListByInvoice(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// Get handles GET /api/v1/admin/payments/:id.
func (h *AdminPaymentHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	payment, err := h.payments.GetByID(id)
	if err != nil {
		notFoundOr(c, err, "payment not found")
		return
	}

	refunds, err := h.refunds.ListByPayment(payment.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list refunds"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment, "refunds": refunds})
}

type updatePaymentRequest struct {
	Description string         `json:"description"`
	CustomData  models.JSONMap `json:"custom_data"`
}

// Update handles PUT /api/v1/admin/payments/:id.
func (h *AdminPaymentHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.payments.UpdateDetail(id, req.Description, req.CustomData)
	if err != nil {
		notFoundOr(c, err, "payment not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

type refundPaymentRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// Refund handles POST /api/v1/admin/payments/:id/refund. A zero amount
// refunds everything still available.
func (h *AdminPaymentHandler) Refund(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req refundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.payments.GetByID(id)
	if err != nil {
		notFoundOr(c, err, "payment not found")
		return
	}

	refund := request.NewRefundRequest(h.deps)
	if err := refund.SetPayment(payment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount != 0 {
		if err := refund.SetAmount(req.Amount); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Reason != "" {
		if err := refund.SetReason(req.Reason); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	resp, err := refund.Execute(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Str("payment", payment.Ref).Msg("refund failed")
		status := http.StatusBadRequest
		if errors.Is(err, request.ErrDriverResponse) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	switch resp.Outcome() {
	case driver.OutcomeComplete, driver.OutcomeProcessing:
		c.JSON(http.StatusOK, gin.H{"status": resp.Outcome().String()})
	case driver.OutcomeFailed:
		c.JSON(http.StatusPaymentRequired, gin.H{
			"status": resp.Outcome().String(),
			"error":  resp.Error().User,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected refund outcome"})
	}
}

type receiptRequest struct {
	Email string `json:"email"`
}

// SendReceipt handles POST /api/v1/admin/payments/:id/receipt.
func (h *AdminPaymentHandler) SendReceipt(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	// An empty body uses the stored addresses.
	var req receiptRequest
	_ = c.ShouldBindJSON(&req)

	payment, err := h.payments.GetByID(id)
	if err != nil {
		notFoundOr(c, err, "payment not found")
		return
	}

	if err := h.payments.SendReceipt(payment, req.Email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
