package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invoicer/internal/models"
	"invoicer/internal/repository"
	"invoicer/internal/service"
)

// AdminCustomerHandler manages customers and their saved payment sources.
type AdminCustomerHandler struct {
	customers *repository.CustomerRepository
	sources   *service.SourceService
	log       zerolog.Logger
}

func NewAdminCustomerHandler(customers *repository.CustomerRepository, sources *service.SourceService, log zerolog.Logger) *AdminCustomerHandler {
	return &AdminCustomerHandler{customers: customers, sources: sources, log: log}
}

type customerRequest struct {
	Label        string `json:"label" binding:"required"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	BillingEmail string `json:"billing_email"`
}

// Create handles POST /api/v1/admin/customers.
func (h *AdminCustomerHandler) Create(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer := &models.Customer{
		Label:        req.Label,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		BillingEmail: req.BillingEmail,
	}
	if err := h.customers.Create(customer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create customer"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

// Get handles GET /api/v1/admin/customers/:id.
func (h *AdminCustomerHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	customer, err := h.customers.GetByID(id)
	if err != nil {
		notFoundOr(c, err, "customer not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

// Update handles PUT /api/v1/admin/customers/:id.
func (h *AdminCustomerHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.customers.GetByID(id)
	if err != nil {
		notFoundOr(c, err, "customer not found")
		return
	}
	customer.Label = req.Label
	customer.FirstName = req.FirstName
	customer.LastName = req.LastName
	customer.Email = req.Email
	customer.BillingEmail = req.BillingEmail
	if err := h.customers.Save(customer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update customer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

// Delete handles DELETE /api/v1/admin/customers/:id. The delete is soft;
// invoices raised against the customer keep their reference.
func (h *AdminCustomerHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.customers.GetByID(id); err != nil {
		notFoundOr(c, err, "customer not found")
		return
	}
	if err := h.customers.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete customer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// List handles GET /api/v1/admin/customers.
func (h *AdminCustomerHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))

	customers, total, err := h.customers.List(page, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list customers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "total": total, "page": page})
}

type sourceRequest struct {
	Driver  string            `json:"driver" binding:"required"`
	Data    map[string]string `json:"data" binding:"required"`
	Default bool              `json:"default"`
}

// CreateSource handles POST /api/v1/admin/customers/:id/sources.
func (h *AdminCustomerHandler) CreateSource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source, err := h.sources.Create(c.Request.Context(), id, req.Driver, req.Data, req.Default)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"source": source})
}

// ListSources handles GET /api/v1/admin/customers/:id/sources.
func (h *AdminCustomerHandler) ListSources(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sources, err := h.sources.ListByCustomer(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sources"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

func sourceID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("sourceId"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
		return 0, false
	}
	return uint(id), true
}

// SetDefaultSource handles POST /api/v1/admin/customers/:id/sources/:sourceId/default.
func (h *AdminCustomerHandler) SetDefaultSource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sid, ok := sourceID(c)
	if !ok {
		return
	}
	if err := h.sources.SetDefault(id, sid); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "default set"})
}

// DeleteSource handles DELETE /api/v1/admin/customers/:id/sources/:sourceId.
func (h *AdminCustomerHandler) DeleteSource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sid, ok := sourceID(c)
	if !ok {
		return
	}
	if err := h.sources.Delete(id, sid); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
