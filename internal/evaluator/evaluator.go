// Package evaluator 按规范条款评估图纸并生成违规项
package evaluator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"firesafe-engine/internal/apperr"
	"firesafe-engine/internal/detector"
	"firesafe-engine/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 无必需元素的条款按严重级别模拟检查的违规概率
var violationProbability = map[models.Severity]float64{
	models.SeverityCritical: 0.02,
	models.SeverityMajor:    0.10,
	models.SeverityMinor:    0.20,
}

// RuleSource 规则目录
type RuleSource interface {
	RulesApplicableTo(drawingType models.DrawingType, buildingType models.BuildingType) []models.Rule
	Text(ruleID string) (description, fix string)
}

// DrawingEvaluation 单张图纸的评估结果
type DrawingEvaluation struct {
	Drawing          models.Drawing
	DrawingType      models.DrawingType
	DetectedElements []string
	Violations       []models.Violation
}

// Evaluator 合规评估器
type Evaluator struct {
	rules    RuleSource
	detector detector.Detector
	rand     RandSource
	workers  int
	logger   *zap.Logger
}

// NewEvaluator 创建评估器；workers <= 0 时按 1 处理
func NewEvaluator(rules RuleSource, det detector.Detector, rnd RandSource, workers int, logger *zap.Logger) *Evaluator {
	if workers <= 0 {
		workers = 1
	}
	return &Evaluator{
		rules:    rules,
		detector: det,
		rand:     rnd,
		workers:  workers,
		logger:   logger,
	}
}

// Evaluate 评估单张图纸，返回违规列表
func (e *Evaluator) Evaluate(ctx context.Context, project models.Project, drawing models.Drawing) ([]models.Violation, error) {
	result, err := e.EvaluateDrawing(ctx, project, drawing)
	if err != nil {
		return nil, err
	}
	return result.Violations, nil
}

// ResolveType 优先使用上传时声明的类型，否则按关键词识别
func (e *Evaluator) ResolveType(drawing models.Drawing) models.DrawingType {
	if dt, ok := models.ParseDrawingType(drawing.DeclaredType); ok {
		return dt
	}
	return e.detector.ResolveDrawingType(drawing.FileName, drawing.Description)
}

// EvaluateDrawing 评估单张图纸并返回类型、检测元素和违规项
func (e *Evaluator) EvaluateDrawing(ctx context.Context, project models.Project, drawing models.Drawing) (*DrawingEvaluation, error) {
	return e.evaluateDrawing(ctx, project, drawing, e.rand)
}

func (e *Evaluator) evaluateDrawing(ctx context.Context, project models.Project, drawing models.Drawing, rnd RandSource) (*DrawingEvaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	drawingType := e.ResolveType(drawing)
	elements := e.detector.Detect(drawingType)

	violations := make([]models.Violation, 0)
	for _, rule := range e.rules.RulesApplicableTo(drawingType, project.BuildingType) {
		// 取消后丢弃已累积的结果
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !rule.MatchesProject(project) {
			continue
		}

		violated, err := e.checkRule(rule, elements, rnd)
		if err != nil {
			e.logger.Warn("Rule check failed, treating as compliant",
				zap.String("project_id", project.ProjectID),
				zap.String("drawing_id", drawing.DrawingID),
				zap.String("rule_id", rule.ID),
				zap.Error(err),
			)
			continue
		}
		if violated {
			violations = append(violations, e.buildViolation(rule, drawing))
		}
	}

	e.logger.Debug("Drawing evaluated",
		zap.String("project_id", project.ProjectID),
		zap.String("drawing_id", drawing.DrawingID),
		zap.String("drawing_type", string(drawingType)),
		zap.Int("violations", len(violations)),
	)

	return &DrawingEvaluation{
		Drawing:          drawing,
		DrawingType:      drawingType,
		DetectedElements: elements,
		Violations:       violations,
	}, nil
}

// EvaluateProject 并发评估项目全部图纸，结果按图纸顺序返回
func (e *Evaluator) EvaluateProject(ctx context.Context, project models.Project) ([]DrawingEvaluation, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	// 子流按图纸顺序派生，必须在启动 goroutine 之前完成
	streams := make([]RandSource, len(project.Drawings))
	for i := range streams {
		streams[i] = e.stream()
	}

	var mu sync.Mutex
	merged := make(map[int]*DrawingEvaluation, len(project.Drawings))

	for i, drawing := range project.Drawings {
		i, drawing := i, drawing
		g.Go(func() error {
			res, err := e.evaluateDrawing(gctx, project, drawing, streams[i])
			if err != nil {
				return fmt.Errorf("failed to evaluate drawing %s: %w", drawing.DrawingID, err)
			}
			mu.Lock()
			merged[i] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]DrawingEvaluation, len(project.Drawings))
	for i := range results {
		results[i] = *merged[i]
	}
	return results, nil
}

func (e *Evaluator) stream() RandSource {
	if s, ok := e.rand.(Splitter); ok {
		return s.Split()
	}
	return e.rand
}

// checkRule 单条规则检查，panic 转为 RuleCheckError
func (e *Evaluator) checkRule(rule models.Rule, elements []string, rnd RandSource) (violated bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			violated = false
			err = &apperr.RuleCheckError{RuleID: rule.ID, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	if len(rule.RequiredElements) > 0 {
		for _, required := range rule.RequiredElements {
			if containsElement(elements, required) {
				return false, nil
			}
		}
		return true, nil
	}

	p, ok := violationProbability[rule.Severity]
	if !ok {
		return false, &apperr.RuleCheckError{RuleID: rule.ID, Cause: fmt.Errorf("unknown severity %q", rule.Severity)}
	}
	return rnd.Float64() < p, nil
}

func (e *Evaluator) buildViolation(rule models.Rule, drawing models.Drawing) models.Violation {
	description, fix := e.rules.Text(rule.ID)
	elementType := string(rule.Category)
	if len(rule.RequiredElements) > 0 {
		elementType = rule.RequiredElements[0]
	}
	return models.Violation{
		RuleID:       rule.ID,
		RuleTitle:    rule.Title,
		Chapter:      rule.Chapter,
		Article:      rule.Article,
		Severity:     rule.Severity,
		Description:  description,
		SuggestedFix: fix,
		ElementType:  elementType,
		Location:     drawing.FileName,
	}
}

// containsElement 模糊匹配：忽略大小写，双向子串
func containsElement(elements []string, required string) bool {
	req := strings.ToLower(strings.TrimSpace(required))
	if req == "" {
		return false
	}
	for _, el := range elements {
		e := strings.ToLower(strings.TrimSpace(el))
		if e == "" {
			continue
		}
		if strings.Contains(e, req) || strings.Contains(req, e) {
			return true
		}
	}
	return false
}
