package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicer/internal/repository"
	"invoicer/internal/service"
)

// AdminInvoiceHandler exposes invoice management to authenticated staff.
type AdminInvoiceHandler struct {
	invoices *service.InvoiceService
	log      zerolog.Logger
}

func NewAdminInvoiceHandler(invoices *service.InvoiceService, log zerolog.Logger) *AdminInvoiceHandler {
	return &AdminInvoiceHandler{invoices: invoices, log: log}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func notFoundOr(c *gin.Context, err error, msg string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// List handles GET /api/v1/admin/invoices.
func (h *AdminInvoiceHandler) List(c *gin.Context) {
	customerID, _ := strconv.ParseUint(c.Query("customer_id"), 10, 32)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))

	invoices, total, err := h.invoices.List(repository.ListFilter{
		State:      c.Query("state"),
		CustomerID: uint(customerID),
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list invoices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "total": total, "page": page})
}

// Create handles POST /api/v1/admin/invoices.
func (h *AdminInvoiceHandler) Create(c *gin.Context) {
	var input service.InvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoices.Create(input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": invoice})
}

// Get handles GET /api/v1/admin/invoices/:id.
func (h *AdminInvoiceHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.GetByID(id)
	if err != nil {
		notFoundOr(c, err, "invoice not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// Update handles PUT /api/v1/admin/invoices/:id.
func (h *AdminInvoiceHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input service.InvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoices.Update(id, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// Delete handles DELETE /api/v1/admin/invoices/:id. Drafts only.
func (h *AdminInvoiceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.invoices.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type sendRequest struct {
	Email string `json:"email"`
}

// Send handles POST /api/v1/admin/invoices/:id/send.
func (h *AdminInvoiceHandler) Send(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	// An empty or absent body is fine; the stored addresses are used.
	var req sendRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.invoices.Send(id, req.Email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// WriteOff handles POST /api/v1/admin/invoices/:id/write-off.
func (h *AdminInvoiceHandler) WriteOff(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.invoices.WriteOff(id); err != nil {
		notFoundOr(c, err, "invoice not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "written off"})
}

// Cancel handles POST /api/v1/admin/invoices/:id/cancel.
func (h *AdminInvoiceHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.invoices.Cancel(id); err != nil {
		notFoundOr(c, err, "invoice not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
