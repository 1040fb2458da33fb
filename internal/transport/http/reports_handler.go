package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/logger"
)

// ReportHandler serves admin-only reporting. Access is enforced by RequireAdmin.
type ReportHandler struct {
	reports *app.ReportService
	log     *logger.Logger
}

func NewReportHandler(reports *app.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, log: log}
}

func (h *ReportHandler) Statistics(c *gin.Context) {
	stats, err := h.reports.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ReportHandler) Submissions(c *gin.Context) {
	filter, ok := submissionFilter(c)
	if !ok {
		return
	}
	rows, err := h.reports.Submissions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch submissions")
		return
	}
	c.JSON(http.StatusOK, rows)
}
