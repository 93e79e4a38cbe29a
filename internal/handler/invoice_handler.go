package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicer/internal/models"
	"invoicer/internal/pdf"
	"invoicer/internal/request"
	"invoicer/internal/service"
	"invoicer/pkg/driver"
)

// InvoiceHandler serves the public, token-protected invoice surface.
type InvoiceHandler struct {
	invoices *service.InvoiceService
	sources  *service.SourceService
	deps     request.Deps
	log      zerolog.Logger
}

func NewInvoiceHandler(invoices *service.InvoiceService, sources *service.SourceService, deps request.Deps, log zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, sources: sources, deps: deps, log: log}
}

func (h *InvoiceHandler) loadInvoice(c *gin.Context) *models.Invoice {
	invoice, err := h.invoices.GetByRefAndToken(c.Param("ref"), c.Param("token"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load invoice"})
		}
		return nil
	}
	return invoice
}

// View handles GET /invoice/invoice/:ref/:token/view.
func (h *InvoiceHandler) View(c *gin.Context) {
	invoice := h.loadInvoice(c)
	if invoice == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// Download handles GET /invoice/invoice/:ref/:token/download.
func (h *InvoiceHandler) Download(c *gin.Context) {
	invoice := h.loadInvoice(c)
	if invoice == nil {
		return
	}

	data, err := pdf.RenderInvoice(invoice)
	if err != nil {
		h.log.Error().Err(err).Str("invoice", invoice.Ref).Msg("pdf render failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not render invoice"})
		return
	}

	filename := fmt.Sprintf("invoice-%s.pdf", invoice.Ref)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// PayPage handles GET /invoice/invoice/:ref/:token/pay. It describes what
// is owed and which drivers can take the payment.
func (h *InvoiceHandler) PayPage(c *gin.Context) {
	invoice := h.loadInvoice(c)
	if invoice == nil {
		return
	}

	switch invoice.State {
	case models.InvoiceStateWrittenOff, models.InvoiceStateCancelled, models.InvoiceStateDraft:
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("invoice is %s and cannot be paid",
			models.InvoiceStates[invoice.State])})
		return
	}
	if invoice.IsPaid(false) {
		c.JSON(http.StatusOK, gin.H{"invoice_ref": invoice.Ref, "outstanding": 0, "paid": true})
		return
	}

	type driverInfo struct {
		Slug          string `json:"slug"`
		Label         string `json:"label"`
		PaymentFields string `json:"payment_fields"`
	}
	var drivers []driverInfo
	for _, d := range h.deps.Drivers.All() {
		drivers = append(drivers, driverInfo{Slug: d.Slug(), Label: d.Label(), PaymentFields: d.PaymentFields()})
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice_ref": invoice.Ref,
		"currency":    invoice.Currency,
		"outstanding": invoice.Outstanding(),
		"formatted":   models.FormatAmount(invoice.Currency, invoice.Outstanding()),
		"due":         invoice.Due,
		"drivers":     drivers,
	})
}

type cardInput struct {
	Name     string `json:"name"`
	Number   string `json:"number"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
	CVC      string `json:"cvc"`
}

type payRequest struct {
	Driver          string            `json:"driver" binding:"required"`
	Amount          int64             `json:"amount"`
	Card            *cardInput        `json:"card"`
	CustomFields    map[string]string `json:"custom_fields"`
	SourceID        uint              `json:"source_id"`
	CustomerPresent *bool             `json:"customer_present"`
}

// Pay handles POST /invoice/invoice/:ref/:token/pay and runs the charge.
func (h *InvoiceHandler) Pay(c *gin.Context) {
	invoice := h.loadInvoice(c)
	if invoice == nil {
		return
	}

	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	charge := request.NewChargeRequest(h.deps)
	if err := h.buildCharge(charge, invoice, req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := charge.Execute(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Str("invoice", invoice.Ref).Msg("charge failed")
		status := http.StatusBadRequest
		if errors.Is(err, request.ErrDriverResponse) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.renderChargeOutcome(c, resp)
}

func (h *InvoiceHandler) buildCharge(charge *request.ChargeRequest, invoice *models.Invoice, req payRequest) error {
	if err := charge.SetDriver(req.Driver); err != nil {
		return err
	}
	if err := charge.SetInvoice(invoice); err != nil {
		return err
	}
	if req.Amount != 0 {
		if err := charge.SetAmount(req.Amount); err != nil {
			return err
		}
	}
	if req.SourceID != 0 {
		source, err := h.sources.GetByID(req.SourceID)
		if err != nil {
			return fmt.Errorf("source %d: %w", req.SourceID, err)
		}
		if err := charge.SetSource(source); err != nil {
			return err
		}
	}
	if req.Card != nil {
		err := charge.SetCard(req.Card.Name, req.Card.Number, req.Card.ExpMonth, req.Card.ExpYear, req.Card.CVC)
		if err != nil {
			return err
		}
	}
	for k, v := range req.CustomFields {
		if err := charge.SetCustomField(k, v); err != nil {
			return err
		}
	}
	if req.CustomerPresent != nil {
		if err := charge.SetCustomerPresent(*req.CustomerPresent); err != nil {
			return err
		}
	}
	return charge.SetDescription(fmt.Sprintf("Payment for invoice %s", invoice.Ref))
}

func (h *InvoiceHandler) renderChargeOutcome(c *gin.Context, resp *driver.ChargeResponse) {
	switch resp.Outcome() {
	case driver.OutcomeComplete, driver.OutcomeProcessing:
		c.JSON(http.StatusOK, gin.H{
			"status":      resp.Outcome().String(),
			"payment_ref": resp.PaymentRef(),
			"redirect":    resp.SuccessURL(),
		})

	case driver.OutcomeSca:
		c.JSON(http.StatusOK, gin.H{
			"status":      resp.Outcome().String(),
			"payment_ref": resp.PaymentRef(),
			"redirect":    resp.ScaURL(),
		})

	case driver.OutcomeRedirect:
		body := gin.H{
			"status":      resp.Outcome().String(),
			"payment_ref": resp.PaymentRef(),
			"redirect":    resp.RedirectURL(),
		}
		if post := resp.RedirectPostData(); post != nil {
			body["post_data"] = post
		}
		c.JSON(http.StatusOK, body)

	case driver.OutcomeFailed:
		c.JSON(http.StatusPaymentRequired, gin.H{
			"status":      resp.Outcome().String(),
			"payment_ref": resp.PaymentRef(),
			"error":       resp.Error().User,
			"redirect":    resp.ErrorURL(),
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected charge outcome"})
	}
}
