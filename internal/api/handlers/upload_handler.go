package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/service"
)

type UploadHandler struct {
	uploads *service.UploadService
}

func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload accepts one workbook under the "file" form field. The export
// type is detected from the headers; AR aging uploads additionally need
// a "snapshot_date" field (YYYY-MM-DD). Returns 202 with the pending
// run; processing status is polled via GET /uploads/:id.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	var snapshotDate *time.Time
	if raw := c.PostForm("snapshot_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "snapshot_date must be YYYY-MM-DD"})
			return
		}
		snapshotDate = &parsed
	}

	run, err := h.uploads.Receive(c.Request.Context(), file, snapshotDate, c.PostForm("uploaded_by"))
	if err != nil {
		if errors.Is(err, service.ErrDuplicateUpload) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("file", file.Filename).Msg("upload rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, run.ToResponse())
}

// GetStatus returns one upload run by id.
func (h *UploadHandler) GetStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
		return
	}

	run, err := h.uploads.GetUpload(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("upload lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load upload"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
		return
	}

	c.JSON(http.StatusOK, run.ToResponse())
}

// History lists recent uploads, newest first.
func (h *UploadHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.uploads.History(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("upload history failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load upload history"})
		return
	}

	items := make([]domain.UploadResponse, len(runs))
	for i, run := range runs {
		items[i] = run.ToResponse()
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}
