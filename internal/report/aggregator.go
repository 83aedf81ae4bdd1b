package report

import (
	"fmt"

	"firesafe-engine/internal/models"
)

// Aggregator 绑定一种评分方式的报告汇总器
type Aggregator struct {
	strategy ScoringStrategy
}

// NewAggregator 创建汇总器
func NewAggregator(strategy ScoringStrategy) *Aggregator {
	return &Aggregator{strategy: strategy}
}

// Strategy 当前评分方式
func (a *Aggregator) Strategy() ScoringStrategy {
	return a.strategy
}

// Aggregate 由违规集合确定性地推导报告
func (a *Aggregator) Aggregate(violations []models.Violation) models.ComplianceReport {
	critical, major, minor := CountBySeverity(violations)
	score := a.strategy.Score(critical, major, minor)

	copied := make([]models.Violation, len(violations))
	copy(copied, violations)

	return models.ComplianceReport{
		ComplianceScore: score,
		OverallStatus:   Status(critical, major, score),
		CriticalIssues:  critical,
		MajorIssues:     major,
		MinorIssues:     minor,
		Violations:      copied,
		Recommendations: BuildRecommendations(score, violations),
		Notes: []string{
			fmt.Sprintf("Scoring strategy: %s (critical -%d, major -%d, minor -%d).",
				a.strategy.Name, a.strategy.Critical, a.strategy.Major, a.strategy.Minor),
			"Drawing analysis is simulated; findings must be confirmed by a licensed fire safety engineer.",
		},
	}
}

// Chapters 按章节汇总；applicable 为各章节适用的条款数，order 决定输出顺序
func (a *Aggregator) Chapters(order []string, applicable map[string]int, violations []models.Violation) []models.ChapterResult {
	byChapter := make(map[string][]models.Violation)
	for _, v := range violations {
		byChapter[v.Chapter] = append(byChapter[v.Chapter], v)
	}

	var results []models.ChapterResult
	for _, chapter := range order {
		vs := byChapter[chapter]
		if applicable[chapter] == 0 && len(vs) == 0 {
			continue
		}
		critical, major, minor := CountBySeverity(vs)
		results = append(results, models.ChapterResult{
			Chapter:         chapter,
			ApplicableRules: applicable[chapter],
			Violations:      append([]models.Violation{}, vs...),
			Score:           a.strategy.Score(critical, major, minor),
		})
	}
	return results
}
