package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/report"
	"github.com/andresuchdata/storepulse/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const defaultRunsLimit = 50

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

type reportKindResponse struct {
	Kind  domain.ReportKind `json:"kind"`
	Label string            `json:"label"`
}

func (h *ReportHandler) ListKinds(c *gin.Context) {
	kinds := domain.ReportKinds()
	out := make([]reportKindResponse, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, reportKindResponse{Kind: k, Label: domain.ReportKindLabel(k)})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// Export renders the report named in the path. The body is an optional
// request document; format comes from the query string.
func (h *ReportHandler) Export(c *gin.Context) {
	kind, ok := domain.ParseReportKind(c.Param("kind"))
	if !ok {
		respondError(c, fmt.Errorf("%w: %q", domain.ErrUnknownReport, c.Param("kind")))
		return
	}

	var req report.Request
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
			return
		}
	}
	req.Kind = kind

	var format report.Format
	if raw := c.Query("format"); raw != "" {
		f, ok := report.ParseFormat(raw)
		if !ok {
			respondError(c, fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidRequest, raw))
			return
		}
		format = f
	}

	artifact, err := h.service.Export(c.Request.Context(), req, format)
	if err != nil {
		respondError(c, err)
		return
	}

	if format != report.FormatJSON {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	}
	c.Header("X-Report-Rows", strconv.Itoa(artifact.Rows))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func (h *ReportHandler) ListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if v, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRunsLimit))); err == nil && v > 0 {
		limit = v
	}

	runs, err := h.service.Runs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = make([]domain.ReportRun, 0)
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}

func (h *ReportHandler) ListManagers(c *gin.Context) {
	managers, err := h.service.Managers()
	if err != nil {
		respondError(c, err)
		return
	}
	if managers == nil {
		managers = make([]string, 0)
	}
	c.JSON(http.StatusOK, gin.H{"data": managers})
}

func (h *ReportHandler) ListFilterOptions(c *gin.Context) {
	opts, err := h.service.FilterOptions()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": opts})
}

func (h *ReportHandler) ListArchive(c *gin.Context) {
	var kind domain.ReportKind
	if raw := c.Query("kind"); raw != "" {
		k, ok := domain.ParseReportKind(raw)
		if !ok {
			respondError(c, fmt.Errorf("%w: %q", domain.ErrUnknownReport, raw))
			return
		}
		kind = k
	}

	reports, err := h.service.Archived(c.Request.Context(), kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reports})
}

func (h *ReportHandler) ListStores(c *gin.Context) {
	stores, err := h.service.Stores()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stores})
}

func (h *ReportHandler) Reload(c *gin.Context) {
	version, err := h.service.Reload(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": version})
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrDataUnavailable):
		status, message = http.StatusServiceUnavailable, "Report data is not available yet, please try again later"
	case errors.Is(err, domain.ErrNoMatchingRows):
		status, message = http.StatusNotFound, "No data matches the selected filters"
	case errors.Is(err, domain.ErrUnknownReport):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInvalidRequest):
		status, message = http.StatusBadRequest, err.Error()
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": message})
}
