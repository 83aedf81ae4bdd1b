package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"firesafe-engine/internal/models"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

// DefaultReportLimit 列表默认条数
const DefaultReportLimit = 20

// ReportFilter 报告列表过滤条件
type ReportFilter struct {
	ProjectID string
	Strategy  string // 为空表示全部
	Limit     uint64
}

// ReportRepository 合规报告（只追加，重新分析产生新记录）
type ReportRepository interface {
	SaveReport(ctx context.Context, report *models.StoredReport) error
	ListReports(ctx context.Context, filter ReportFilter) ([]models.StoredReport, error)
}

// PostgresReportRepository 报告仓库（PostgreSQL）
type PostgresReportRepository struct {
	db     *sql.DB
	psql   sq.StatementBuilderType
	logger *zap.Logger
}

// NewPostgresReportRepository 创建报告仓库
func NewPostgresReportRepository(db *sql.DB, logger *zap.Logger) *PostgresReportRepository {
	return &PostgresReportRepository{
		db:     db,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger,
	}
}

// SaveReport 写入一条报告
func (r *PostgresReportRepository) SaveReport(ctx context.Context, report *models.StoredReport) error {
	if report == nil || report.ReportID == "" {
		return fmt.Errorf("report_id is required")
	}

	payload, err := json.Marshal(report.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query, args, err := r.psql.
		Insert("compliance_reports").
		Columns("report_id", "project_id", "strategy", "compliance_score", "overall_status", "report", "created_at").
		Values(report.ReportID, report.ProjectID, report.Strategy, report.Report.ComplianceScore,
			string(report.Report.OverallStatus), string(payload), report.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	r.logger.Info("Compliance report stored",
		zap.String("report_id", report.ReportID),
		zap.String("project_id", report.ProjectID),
		zap.String("strategy", report.Strategy),
		zap.Int("score", report.Report.ComplianceScore),
	)
	return nil
}

// ListReports 按时间倒序列出项目的历史报告
func (r *PostgresReportRepository) ListReports(ctx context.Context, filter ReportFilter) ([]models.StoredReport, error) {
	if filter.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultReportLimit
	}

	builder := r.psql.
		Select("report_id", "project_id", "strategy", "report", "created_at").
		From("compliance_reports").
		Where(sq.Eq{"project_id": filter.ProjectID})
	if filter.Strategy != "" {
		builder = builder.Where(sq.Eq{"strategy": filter.Strategy})
	}
	query, args, err := builder.
		OrderBy("created_at DESC").
		Limit(filter.Limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.StoredReport
	for rows.Next() {
		var sr models.StoredReport
		var payload []byte
		if err := rows.Scan(&sr.ReportID, &sr.ProjectID, &sr.Strategy, &payload, &sr.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if err := json.Unmarshal(payload, &sr.Report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report %s: %w", sr.ReportID, err)
		}
		reports = append(reports, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

// MemoryReportRepository 未配置数据库时使用
type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports []models.StoredReport
}

// NewMemoryReportRepository 创建内存仓库
func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{}
}

// SaveReport 实现 ReportRepository
func (r *MemoryReportRepository) SaveReport(_ context.Context, report *models.StoredReport) error {
	if report == nil || report.ReportID == "" {
		return fmt.Errorf("report_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, *report)
	return nil
}

// ListReports 实现 ReportRepository
func (r *MemoryReportRepository) ListReports(_ context.Context, filter ReportFilter) ([]models.StoredReport, error) {
	if filter.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultReportLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.StoredReport
	for i := len(r.reports) - 1; i >= 0; i-- {
		sr := r.reports[i]
		if sr.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Strategy != "" && sr.Strategy != filter.Strategy {
			continue
		}
		out = append(out, sr)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if uint64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
