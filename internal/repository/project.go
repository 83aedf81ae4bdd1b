package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"firesafe-engine/internal/apperr"
	"firesafe-engine/internal/models"

	"go.uber.org/zap"
)

// ProjectRepository 送审项目
type ProjectRepository interface {
	GetProject(ctx context.Context, projectID string) (*models.Project, error)
	CreateProject(ctx context.Context, project *models.Project) error
}

// PostgresProjectRepository 项目仓库（PostgreSQL）
type PostgresProjectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresProjectRepository 创建项目仓库
func NewPostgresProjectRepository(db *sql.DB, logger *zap.Logger) *PostgresProjectRepository {
	return &PostgresProjectRepository{
		db:     db,
		logger: logger,
	}
}

// GetProject 读取项目及其图纸（按上传时间排序）
func (r *PostgresProjectRepository) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	query := `
		SELECT project_id, name, building_type, area_m2, floors, occupancy
		FROM projects
		WHERE project_id = $1
	`

	var p models.Project
	var buildingType string
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&p.ProjectID,
		&p.Name,
		&buildingType,
		&p.AreaM2,
		&p.Floors,
		&p.Occupancy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", projectID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	p.BuildingType = models.BuildingType(buildingType)

	drawingsQuery := `
		SELECT drawing_id, file_name, COALESCE(description, ''), COALESCE(declared_type, ''), uploaded_at
		FROM project_drawings
		WHERE project_id = $1
		ORDER BY uploaded_at, drawing_id
	`

	rows, err := r.db.QueryContext(ctx, drawingsQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query drawings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.Drawing
		if err := rows.Scan(&d.DrawingID, &d.FileName, &d.Description, &d.DeclaredType, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan drawing: %w", err)
		}
		p.Drawings = append(p.Drawings, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate drawings: %w", err)
	}

	return &p, nil
}

// CreateProject 在一个事务中写入项目和图纸
func (r *PostgresProjectRepository) CreateProject(ctx context.Context, project *models.Project) error {
	if project == nil || project.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (project_id, name, building_type, area_m2, floors, occupancy)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, project.ProjectID, project.Name, string(project.BuildingType), project.AreaM2, project.Floors, project.Occupancy)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	for _, d := range project.Drawings {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO project_drawings (drawing_id, project_id, file_name, description, declared_type, uploaded_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
		`, d.DrawingID, project.ProjectID, d.FileName, d.Description, d.DeclaredType, d.UploadedAt)
		if err != nil {
			return fmt.Errorf("failed to insert drawing %s: %w", d.DrawingID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit project: %w", err)
	}

	r.logger.Info("Project created",
		zap.String("project_id", project.ProjectID),
		zap.Int("drawings", len(project.Drawings)),
	)
	return nil
}

// MemoryProjectRepository 未配置数据库时使用
type MemoryProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]models.Project
}

// NewMemoryProjectRepository 创建内存仓库
func NewMemoryProjectRepository(seed ...models.Project) *MemoryProjectRepository {
	r := &MemoryProjectRepository{projects: make(map[string]models.Project)}
	for _, p := range seed {
		r.projects[p.ProjectID] = cloneProject(p)
	}
	return r
}

// GetProject 实现 ProjectRepository
func (r *MemoryProjectRepository) GetProject(_ context.Context, projectID string) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, apperr.ErrNotFound)
	}
	c := cloneProject(p)
	return &c, nil
}

// CreateProject 实现 ProjectRepository
func (r *MemoryProjectRepository) CreateProject(_ context.Context, project *models.Project) error {
	if project == nil || project.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.projects[project.ProjectID]; exists {
		return fmt.Errorf("project %s already exists", project.ProjectID)
	}
	c := cloneProject(*project)
	sort.SliceStable(c.Drawings, func(i, j int) bool { return c.Drawings[i].UploadedAt.Before(c.Drawings[j].UploadedAt) })
	r.projects[project.ProjectID] = c
	return nil
}

func cloneProject(p models.Project) models.Project {
	p.Drawings = append([]models.Drawing(nil), p.Drawings...)
	return p
}
