package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicer/internal/models"
	"invoicer/internal/request"
	"invoicer/internal/service"
)

// PaymentHandler serves the public payment landing and SCA continuation.
// Both live under /invoice/payment with the same arity, and gin cannot mix
// a static segment with a param at the same position, so one route
// dispatches both shapes:
//
//	/invoice/payment/:id/:token/complete
//	/invoice/payment/sca/:token/:hash
type PaymentHandler struct {
	payments *service.PaymentService
	invoices *service.InvoiceService
	deps     request.Deps
	log      zerolog.Logger
}

func NewPaymentHandler(payments *service.PaymentService, invoices *service.InvoiceService, deps request.Deps, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, invoices: invoices, deps: deps, log: log}
}

// Dispatch routes GET /invoice/payment/:p1/:p2/:p3.
func (h *PaymentHandler) Dispatch(c *gin.Context) {
	p1, p2, p3 := c.Param("p1"), c.Param("p2"), c.Param("p3")
	switch {
	case p1 == "sca":
		h.sca(c, p2, p3)
	case p3 == "complete":
		h.complete(c, p1, p2)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	}
}

// complete is the fixed landing page every charge returns to.
func (h *PaymentHandler) complete(c *gin.Context, rawID, token string) {
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	payment, err := h.payments.GetByIDAndToken(uint(id), token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load payment"})
		}
		return
	}

	invoice, err := h.invoices.GetByID(payment.InvoiceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load invoice"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_ref":    payment.Ref,
		"payment_status": payment.Status,
		"amount":         models.FormatAmount(payment.Currency, payment.Amount),
		"invoice_ref":    invoice.Ref,
		"invoice_state":  invoice.State,
		"fail_msg":       payment.FailMsg,
	})
}

// sca is where the customer lands after (or during) strong customer
// authentication. The hash pins the URL to the authentication data captured
// at charge time.
func (h *PaymentHandler) sca(c *gin.Context, token, hash string) {
	payment, err := h.payments.GetByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load payment"})
		}
		return
	}

	// Refreshing a finished flow just forwards to the landing page.
	if payment.Status == models.PaymentStatusComplete || payment.Status == models.PaymentStatusProcessing {
		c.Redirect(http.StatusFound, payment.URLSuccess)
		return
	}

	if hash != request.ScaDataHash(payment.ScaData) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid authentication url"})
		return
	}

	sca := request.NewScaRequest(h.deps)
	if err := sca.SetPayment(payment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := sca.Execute(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Str("payment", payment.Ref).Msg("sca continuation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication could not be completed"})
		return
	}

	switch {
	case resp.IsComplete():
		c.Redirect(http.StatusFound, payment.URLSuccess)

	case resp.IsRedirect():
		c.Redirect(http.StatusFound, resp.RedirectURL())

	case resp.IsFailed():
		// Back to the payment page with the reason attached.
		target := payment.URLError
		if msg := resp.Error().User; msg != "" {
			sep := "?"
			if u, err := url.Parse(target); err == nil && u.RawQuery != "" {
				sep = "&"
			}
			target += sep + "error=" + url.QueryEscape(msg)
		}
		c.Redirect(http.StatusFound, target)

	default:
		h.log.Error().Str("payment", payment.Ref).Str("outcome", resp.Outcome().String()).
			Msg("unexpected sca outcome")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected authentication outcome"})
	}
}
