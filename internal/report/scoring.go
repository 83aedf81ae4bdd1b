// Package report 把违规项汇总为合规报告
package report

import "firesafe-engine/internal/models"

// ScoringStrategy 按严重级别扣分的评分方式
type ScoringStrategy struct {
	Name     string
	Critical int
	Major    int
	Minor    int
}

var (
	// BasicScoring 自动审查路径
	BasicScoring = ScoringStrategy{Name: "basic", Critical: 20, Major: 10, Minor: 5}
	// StrictScoring 规范深度分析路径
	StrictScoring = ScoringStrategy{Name: "strict", Critical: 30, Major: 15, Minor: 5}
)

// 状态判定阈值
const (
	needsRevisionMajorThreshold = 2
	needsRevisionScoreCutoff    = 70
)

// StrategyByName 按名称查找，未知名称返回 false
func StrategyByName(name string) (ScoringStrategy, bool) {
	switch name {
	case BasicScoring.Name:
		return BasicScoring, true
	case StrictScoring.Name:
		return StrictScoring, true
	}
	return ScoringStrategy{}, false
}

// Score 计算合规分，结果在 [0,100]
func (s ScoringStrategy) Score(critical, major, minor int) int {
	score := 100 - (critical*s.Critical + major*s.Major + minor*s.Minor)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Status 审查结论：critical 优先于 major 优先于分数
func Status(critical, major, score int) models.OverallStatus {
	if critical > 0 {
		return models.StatusRejected
	}
	if major > needsRevisionMajorThreshold || score < needsRevisionScoreCutoff {
		return models.StatusNeedsRevision
	}
	return models.StatusApproved
}

// CountBySeverity 统计各级别数量（未知级别不计）
func CountBySeverity(violations []models.Violation) (critical, major, minor int) {
	for _, v := range violations {
		switch v.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityMajor:
			major++
		case models.SeverityMinor:
			minor++
		}
	}
	return critical, major, minor
}
