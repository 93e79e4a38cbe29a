package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicer/internal/models"
	"invoicer/internal/repository"
)

type AdminTaxHandler struct {
	taxes *repository.TaxRepository
}

func NewAdminTaxHandler(taxes *repository.TaxRepository) *AdminTaxHandler {
	return &AdminTaxHandler{taxes: taxes}
}

// List handles GET /api/v1/admin/taxes.
func (h *AdminTaxHandler) List(c *gin.Context) {
	taxes, err := h.taxes.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list taxes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"taxes": taxes})
}

type taxRequest struct {
	Label string `json:"label" binding:"required"`
	Rate  int    `json:"rate" binding:"min=0,max=100"`
}

// Create handles POST /api/v1/admin/taxes.
func (h *AdminTaxHandler) Create(c *gin.Context) {
	var req taxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tax := &models.Tax{Label: req.Label, Rate: req.Rate}
	if err := h.taxes.Create(tax); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create tax"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tax": tax})
}

// Get handles GET /api/v1/admin/taxes/:id.
func (h *AdminTaxHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tax, err := h.taxes.GetByID(id)
	if err != nil {
		notFoundOr(c, err, "tax not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tax": tax})
}

// Update handles PUT /api/v1/admin/taxes/:id.
func (h *AdminTaxHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req taxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tax, err := h.taxes.GetByID(id)
	if err != nil {
		notFoundOr(c, err, "tax not found")
		return
	}
	tax.Label = req.Label
	tax.Rate = req.Rate
	if err := h.taxes.Save(tax); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update tax"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tax": tax})
}

// Delete handles DELETE /api/v1/admin/taxes/:id. A rate referenced by any
// invoice line cannot be removed; historic totals depend on it.
func (h *AdminTaxHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.taxes.GetByID(id); err != nil {
		notFoundOr(c, err, "tax not found")
		return
	}
	inUse, err := h.taxes.InUse(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete tax"})
		return
	}
	if inUse {
		c.JSON(http.StatusConflict, gin.H{"error": "tax is referenced by invoice items"})
		return
	}
	if err := h.taxes.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete tax"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
