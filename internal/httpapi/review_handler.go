package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"firesafe-engine/internal/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReviewService 审查服务（service.ReviewService 实现）
type ReviewService interface {
	AnalyzeProject(ctx context.Context, projectID string) ([]models.AutoReviewResult, error)
	GenerateReviewReport(ctx context.Context, projectID string) (models.ComplianceReport, error)
	AnalyzeCode(ctx context.Context, projectID string) (models.CodeAnalysis, error)
	ListReports(ctx context.Context, projectID, strategy string, limit uint64) ([]models.StoredReport, error)
	ExportReportXLSX(ctx context.Context, projectID string) ([]byte, error)
	CreateProject(ctx context.Context, project models.Project) (*models.Project, error)
}

// ReviewHandler 项目审查接口
type ReviewHandler struct {
	review ReviewService
	logger *zap.Logger
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(review ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{review: review, logger: logger}
}

// CreateProject POST /api/v1/projects
func (h *ReviewHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var p models.Project
	if err := readBodyJSON(r, maxBodyBytes, &p); err != nil {
		writeError(w, h.logger, err)
		return
	}
	created, err := h.review.CreateProject(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Success(created))
}

// Review GET /api/v1/projects/{id}/review
func (h *ReviewHandler) Review(w http.ResponseWriter, r *http.Request) {
	results, err := h.review.AnalyzeProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Success(results))
}

// Report GET /api/v1/projects/{id}/report
func (h *ReviewHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.review.GenerateReviewReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Success(report))
}

// ReportXLSX GET /api/v1/projects/{id}/report.xlsx
func (h *ReviewHandler) ReportXLSX(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	data, err := h.review.ExportReportXLSX(r.Context(), projectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "compliance-report-"+projectID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Failed to write xlsx response", zap.Error(err))
	}
}

// CodeAnalysis GET /api/v1/projects/{id}/code-analysis
func (h *ReviewHandler) CodeAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.review.AnalyzeCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Success(analysis))
}

// ListReports GET /api/v1/projects/{id}/reports?strategy=basic&limit=20
func (h *ReviewHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 0)
	if limit < 0 {
		limit = 0
	}
	reports, err := h.review.ListReports(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("strategy"), uint64(limit))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if reports == nil {
		reports = []models.StoredReport{}
	}
	writeJSON(w, http.StatusOK, Success(reports))
}
