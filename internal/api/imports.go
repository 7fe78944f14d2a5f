package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/glossarion/glossarion/internal/convert"
	"github.com/glossarion/glossarion/internal/models"
	"github.com/glossarion/glossarion/internal/pipeline"
)

// ImportHandler triggers ingestion runs and serves their status.
type ImportHandler struct {
	runner      ImportRunner
	checkpoints CheckpointAdmin
	log         *logrus.Logger
	importDir   string
}

// NewImportHandler creates an ImportHandler. importDir is the only
// directory source files may be read from.
func NewImportHandler(runner ImportRunner, checkpoints CheckpointAdmin, log *logrus.Logger, importDir string) *ImportHandler {
	return &ImportHandler{
		runner:      runner,
		checkpoints: checkpoints,
		log:         log,
		importDir:   importDir,
	}
}

// startImportRequest is the JSON body of POST /api/imports.
type startImportRequest struct {
	SourceFile string                  `json:"source_file" binding:"required"`
	Format     string                  `json:"format"`
	Mode       string                  `json:"mode" binding:"required"`
	SourceID   string                  `json:"source_id"`
	Enrichment models.EnrichmentConfig `json:"enrichment"`
}

// Start handles POST /api/imports.
func (h *ImportHandler) Start(c *gin.Context) {
	var req startImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body: "+err.Error())

		return
	}

	mode := models.ImportMode(req.Mode)
	if !mode.Valid() {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "mode must be full or incremental")

		return
	}

	format := convert.Format(req.Format)
	switch format {
	case "", convert.FormatAuto, convert.FormatCSV, convert.FormatJSON, convert.FormatXLSX:
	default:
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown format: "+req.Format)

		return
	}

	path, err := resolveSourcePath(h.importDir, req.SourceFile)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	run, err := h.runner.Start(c.Request.Context(), pipeline.Request{
		SourcePath: path,
		Format:     format,
		Mode:       mode,
		SourceID:   req.SourceID,
		Enrichment: req.Enrichment,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrRunActive) {
			respondError(c, http.StatusConflict, ErrCodeConflict, "an import run is already active")

			return
		}

		h.log.WithError(err).Error("starting import run failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to start import")

		return
	}

	h.log.WithFields(logrus.Fields{
		"run_id": run.ID,
		"source": req.SourceFile,
		"mode":   mode,
	}).Info("Import run accepted")

	c.JSON(http.StatusAccepted, run)
}

// Status handles GET /api/imports/:id.
func (h *ImportHandler) Status(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid run id")

		return
	}

	run, err := h.runner.Status(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrRunNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "run not found")

			return
		}

		h.log.WithError(err).WithField("run_id", id).Error("getting run status failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to get run status")

		return
	}

	c.JSON(http.StatusOK, run)
}

// List handles GET /api/imports.
func (h *ImportHandler) List(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 20)

	runs, err := h.runner.List(c.Request.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("listing runs failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to list runs")

		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Cancel handles POST /api/imports/:id/cancel. Cancellation is cooperative:
// the run stops at the next batch boundary and committed work stays.
func (h *ImportHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid run id")

		return
	}

	if err := h.runner.Cancel(id); err != nil {
		if errors.Is(err, models.ErrRunNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "no active run with that id")

			return
		}

		h.log.WithError(err).WithField("run_id", id).Error("cancelling run failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to cancel run")

		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "cancelling"})
}

// resetCheckpointsRequest is the JSON body of POST /api/checkpoints/reset.
type resetCheckpointsRequest struct {
	SourceID string `json:"source_id" binding:"required"`
}

// ResetCheckpoints handles POST /api/checkpoints/reset, forcing the next
// incremental run of the source to start from scratch.
func (h *ImportHandler) ResetCheckpoints(c *gin.Context) {
	var req resetCheckpointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body: "+err.Error())

		return
	}

	removed, err := h.checkpoints.Reset(c.Request.Context(), req.SourceID)
	if err != nil {
		h.log.WithError(err).WithField("source_id", req.SourceID).Error("resetting checkpoints failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to reset checkpoints")

		return
	}

	h.log.WithFields(logrus.Fields{
		"source_id": req.SourceID,
		"removed":   removed,
	}).Info("Checkpoints reset")

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
