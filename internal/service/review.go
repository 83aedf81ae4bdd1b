package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"firesafe-engine/internal/apperr"
	"firesafe-engine/internal/auth"
	"firesafe-engine/internal/catalog"
	"firesafe-engine/internal/evaluator"
	"firesafe-engine/internal/models"
	"firesafe-engine/internal/report"
	"firesafe-engine/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService 图纸合规审查服务
type ReviewService struct {
	projects  repository.ProjectRepository
	reports   repository.ReportRepository
	evaluator *evaluator.Evaluator
	catalog   *catalog.Catalog
	basic     *report.Aggregator
	strict    *report.Aggregator
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewReviewService 创建审查服务
func NewReviewService(
	projects repository.ProjectRepository,
	reports repository.ReportRepository,
	eval *evaluator.Evaluator,
	cat *catalog.Catalog,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		projects:  projects,
		reports:   reports,
		evaluator: eval,
		catalog:   cat,
		basic:     report.NewAggregator(report.BasicScoring),
		strict:    report.NewAggregator(report.StrictScoring),
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// loadProject 读取项目；不存在时返回 ValidationError
func (s *ReviewService) loadProject(ctx context.Context, projectID string) (*models.Project, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, apperr.NewValidation("project_id", "is required")
	}
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NewValidation("project_id", "%s does not exist", projectID)
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return project, nil
}

// AnalyzeProject 逐张图纸审查（BasicScoring 计算每张图纸的得分）
func (s *ReviewService) AnalyzeProject(ctx context.Context, projectID string) ([]models.AutoReviewResult, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	evaluations, err := s.evaluator.EvaluateProject(ctx, *project)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate project: %w", err)
	}

	analyzedAt := s.now().UTC()
	results := make([]models.AutoReviewResult, 0, len(evaluations))
	for _, ev := range evaluations {
		r := s.basic.Aggregate(ev.Violations)
		results = append(results, models.AutoReviewResult{
			DrawingID:        ev.Drawing.DrawingID,
			DrawingName:      ev.Drawing.FileName,
			DrawingType:      ev.DrawingType,
			DetectedElements: ev.DetectedElements,
			Violations:       r.Violations,
			ComplianceScore:  r.ComplianceScore,
			OverallStatus:    r.OverallStatus,
			AnalyzedAt:       analyzedAt,
		})
	}

	s.logger.Info("Project drawings analyzed",
		zap.String("project_id", project.ProjectID),
		zap.Int("drawings", len(results)),
	)
	return results, nil
}

// GenerateReviewReport 生成整个项目的审查报告并追加保存
func (s *ReviewService) GenerateReviewReport(ctx context.Context, projectID string) (models.ComplianceReport, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return models.ComplianceReport{}, err
	}

	evaluations, err := s.evaluator.EvaluateProject(ctx, *project)
	if err != nil {
		return models.ComplianceReport{}, fmt.Errorf("failed to evaluate project: %w", err)
	}

	r := s.basic.Aggregate(flatten(evaluations))
	if err := s.save(ctx, project.ProjectID, s.basic, r); err != nil {
		return models.ComplianceReport{}, err
	}

	s.logger.Info("Review report generated",
		zap.String("project_id", project.ProjectID),
		zap.Int("score", r.ComplianceScore),
		zap.String("status", string(r.OverallStatus)),
		zap.Int("violations", len(r.Violations)),
	)
	return r, nil
}

// AnalyzeCode 规范深度分析（StrictScoring + 按章节汇总）
func (s *ReviewService) AnalyzeCode(ctx context.Context, projectID string) (models.CodeAnalysis, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return models.CodeAnalysis{}, err
	}

	evaluations, err := s.evaluator.EvaluateProject(ctx, *project)
	if err != nil {
		return models.CodeAnalysis{}, fmt.Errorf("failed to evaluate project: %w", err)
	}

	violations := flatten(evaluations)
	r := s.strict.Aggregate(violations)
	if err := s.save(ctx, project.ProjectID, s.strict, r); err != nil {
		return models.CodeAnalysis{}, err
	}

	return models.CodeAnalysis{
		ProjectID:  project.ProjectID,
		Report:     r,
		Chapters:   s.strict.Chapters(s.catalog.Chapters(), s.applicableByChapter(*project, evaluations), violations),
		AnalyzedAt: s.now().UTC(),
	}, nil
}

// applicableByChapter 统计各章节在本项目中适用的条款数（同一条款只计一次）
func (s *ReviewService) applicableByChapter(project models.Project, evaluations []evaluator.DrawingEvaluation) map[string]int {
	seen := make(map[string]bool)
	counts := make(map[string]int)
	for _, ev := range evaluations {
		for _, rule := range s.catalog.RulesApplicableTo(ev.DrawingType, project.BuildingType) {
			if seen[rule.ID] || !rule.MatchesProject(project) {
				continue
			}
			seen[rule.ID] = true
			counts[rule.Chapter]++
		}
	}
	return counts
}

// ListReports 查询历史报告（最新在前）
func (s *ReviewService) ListReports(ctx context.Context, projectID, strategy string, limit uint64) ([]models.StoredReport, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, apperr.NewValidation("project_id", "is required")
	}
	if strategy != "" {
		if _, ok := report.StrategyByName(strategy); !ok {
			return nil, apperr.NewValidation("strategy", "unknown scoring strategy %q", strategy)
		}
	}
	reports, err := s.reports.ListReports(ctx, repository.ReportFilter{
		ProjectID: projectID,
		Strategy:  strategy,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// ExportReportXLSX 导出最近一次审查报告；没有历史报告时先生成一份
func (s *ReviewService) ExportReportXLSX(ctx context.Context, projectID string) ([]byte, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	latest, err := s.reports.ListReports(ctx, repository.ReportFilter{
		ProjectID: project.ProjectID,
		Strategy:  report.BasicScoring.Name,
		Limit:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	var r models.ComplianceReport
	if len(latest) > 0 {
		r = latest[0].Report
	} else if r, err = s.GenerateReviewReport(ctx, project.ProjectID); err != nil {
		return nil, err
	}

	title := project.Name
	if title == "" {
		title = project.ProjectID
	}
	return report.ExportXLSX(title, r)
}

// CreateProject 登记送审项目（需要 admin 能力）
func (s *ReviewService) CreateProject(ctx context.Context, project models.Project) (*models.Project, error) {
	if err := auth.Require(auth.FromContext(ctx), auth.CapabilityAdmin); err != nil {
		return nil, err
	}
	if strings.TrimSpace(project.Name) == "" {
		return nil, apperr.NewValidation("name", "is required")
	}
	if project.AreaM2 < 0 {
		return nil, apperr.NewValidation("area_m2", "must not be negative")
	}
	if project.Floors < 0 {
		return nil, apperr.NewValidation("floors", "must not be negative")
	}
	if project.Occupancy < 0 {
		return nil, apperr.NewValidation("occupancy", "must not be negative")
	}
	if project.BuildingType == "" {
		return nil, apperr.NewValidation("building_type", "is required")
	}

	if project.ProjectID == "" {
		project.ProjectID = s.newID()
	}
	now := s.now().UTC()
	project.Drawings = append([]models.Drawing(nil), project.Drawings...)
	for i := range project.Drawings {
		d := &project.Drawings[i]
		if strings.TrimSpace(d.FileName) == "" {
			return nil, apperr.NewValidation("drawings", "file_name is required")
		}
		if d.DeclaredType != "" {
			if _, ok := models.ParseDrawingType(d.DeclaredType); !ok {
				return nil, apperr.NewValidation("drawings", "unknown drawing type %q", d.DeclaredType)
			}
		}
		if d.DrawingID == "" {
			d.DrawingID = s.newID()
		}
		if d.UploadedAt.IsZero() {
			d.UploadedAt = now.Add(time.Duration(i) * time.Millisecond)
		}
	}

	if err := s.projects.CreateProject(ctx, &project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &project, nil
}

// save 追加保存报告（不覆盖旧记录）
func (s *ReviewService) save(ctx context.Context, projectID string, agg *report.Aggregator, r models.ComplianceReport) error {
	stored := &models.StoredReport{
		ReportID:  s.newID(),
		ProjectID: projectID,
		Strategy:  agg.Strategy().Name,
		Report:    r,
		CreatedAt: s.now().UTC(),
	}
	if err := s.reports.SaveReport(ctx, stored); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func flatten(evaluations []evaluator.DrawingEvaluation) []models.Violation {
	var out []models.Violation
	for _, ev := range evaluations {
		out = append(out, ev.Violations...)
	}
	return out
}
