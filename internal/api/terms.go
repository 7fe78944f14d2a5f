package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/glossarion/glossarion/internal/models"
)

// TermHandler serves read endpoints over the glossary catalog.
type TermHandler struct {
	terms TermRepository
	log   *logrus.Logger
}

// NewTermHandler creates a TermHandler.
func NewTermHandler(terms TermRepository, log *logrus.Logger) *TermHandler {
	return &TermHandler{terms: terms, log: log}
}

const defaultTermPageSize = 50

// List handles GET /api/terms with optional category, limit, and offset
// query parameters.
func (h *TermHandler) List(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), defaultTermPageSize)
	offset := parseOffset(c.Query("offset"))
	category := c.Query("category")

	terms, err := h.terms.List(c.Request.Context(), category, limit, offset)
	if err != nil {
		h.log.WithError(err).Error("listing terms failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to list terms")

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"terms":  terms,
		"limit":  limit,
		"offset": offset,
	})
}

// Get handles GET /api/terms/:slug, returning the full term with its
// sections in display order.
func (h *TermHandler) Get(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" || len(slug) > 255 {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid slug")

		return
	}

	term, err := h.terms.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, models.ErrTermNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "term not found")

			return
		}

		h.log.WithError(err).WithField("slug", slug).Error("getting term failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to get term")

		return
	}

	c.JSON(http.StatusOK, term)
}

// Stats handles GET /api/stats.
func (h *TermHandler) Stats(c *gin.Context) {
	count, err := h.terms.Count(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("counting terms failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to compute stats")

		return
	}

	c.JSON(http.StatusOK, gin.H{"terms": count})
}
