package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CategoryHandler serves read endpoints over categories.
type CategoryHandler struct {
	categories CategoryRepository
	log        *logrus.Logger
}

// NewCategoryHandler creates a CategoryHandler.
func NewCategoryHandler(categories CategoryRepository, log *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, log: log}
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(c *gin.Context) {
	cats, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("listing categories failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to list categories")

		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": cats})
}
