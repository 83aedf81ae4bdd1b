package report

import (
	"fmt"
	"sort"
	"strings"

	"firesafe-engine/internal/models"
)

// MaxRecommendations 建议列表总行数上限（含结尾提示行）
const MaxRecommendations = 15

const latestRevisionLine = "Check the latest revision of the Egyptian Fire Code before final submission."

// BuildRecommendations 生成建议：分数段总结、数量总结、按严重级别排序的违规项、结尾提示
func BuildRecommendations(score int, violations []models.Violation) []string {
	critical, major, minor := CountBySeverity(violations)

	lines := make([]string, 0, MaxRecommendations)
	seen := make(map[string]bool)
	add := func(line string) {
		if len(lines) >= MaxRecommendations-1 {
			return
		}
		key := normalize(line)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		lines = append(lines, line)
	}

	add(scoreSummary(score))
	add(fmt.Sprintf("Found %d violation(s): %d critical, %d major, %d minor.",
		len(violations), critical, major, minor))

	sorted := make([]models.Violation, len(violations))
	copy(sorted, violations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
	})
	for _, v := range sorted {
		add(formatViolation(v))
	}

	return append(lines, latestRevisionLine)
}

func scoreSummary(score int) string {
	switch {
	case score >= 90:
		return fmt.Sprintf("High compliance level (%d/100): the design meets most fire code requirements.", score)
	case score >= 70:
		return fmt.Sprintf("Acceptable compliance level (%d/100): minor fixes are required before approval.", score)
	default:
		return fmt.Sprintf("Low compliance level (%d/100): a comprehensive review of the fire protection design is required.", score)
	}
}

func formatViolation(v models.Violation) string {
	var ctx []string
	for _, part := range []string{v.Article, v.ElementType, v.Location} {
		if strings.TrimSpace(part) != "" {
			ctx = append(ctx, part)
		}
	}
	line := fmt.Sprintf("%s: %s", v.Severity.Label(), v.RuleTitle)
	if len(ctx) > 0 {
		line += " (" + strings.Join(ctx, ", ") + ")"
	}
	return line + " — cause: " + v.Description + " — fix: " + v.SuggestedFix
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
