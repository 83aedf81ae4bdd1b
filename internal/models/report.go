package models

import "time"

// OverallStatus 审查结论
type OverallStatus string

const (
	StatusApproved      OverallStatus = "approved"
	StatusRejected      OverallStatus = "rejected"
	StatusNeedsRevision OverallStatus = "needs_revision"
)

// ComplianceReport 合规报告（由违规集合确定性推导，生成后只读）
type ComplianceReport struct {
	ComplianceScore int           `json:"compliance_score"`
	OverallStatus   OverallStatus `json:"overall_status"`
	CriticalIssues  int           `json:"critical_issues"`
	MajorIssues     int           `json:"major_issues"`
	MinorIssues     int           `json:"minor_issues"`
	Violations      []Violation   `json:"violations"`
	Recommendations []string      `json:"recommendations"`
	Notes           []string      `json:"notes"`
}

// AutoReviewResult 单张图纸的自动审查结果
type AutoReviewResult struct {
	DrawingID        string        `json:"drawing_id"`
	DrawingName      string        `json:"drawing_name"`
	DrawingType      DrawingType   `json:"drawing_type"`
	DetectedElements []string      `json:"detected_elements"`
	Violations       []Violation   `json:"violations"`
	ComplianceScore  int           `json:"compliance_score"`
	OverallStatus    OverallStatus `json:"overall_status"`
	AnalyzedAt       time.Time     `json:"analyzed_at"`
}

// ChapterResult 按规范章节汇总
type ChapterResult struct {
	Chapter         string      `json:"chapter"`
	ApplicableRules int         `json:"applicable_rules"`
	Violations      []Violation `json:"violations"`
	Score           int         `json:"score"`
}

// CodeAnalysis 规范深度分析结果（严格评分）
type CodeAnalysis struct {
	ProjectID  string           `json:"project_id"`
	Report     ComplianceReport `json:"report"`
	Chapters   []ChapterResult  `json:"chapters"`
	AnalyzedAt time.Time        `json:"analyzed_at"`
}

// StoredReport 持久化的报告记录（追加写，不修改）
type StoredReport struct {
	ReportID  string           `json:"report_id" db:"report_id"`
	ProjectID string           `json:"project_id" db:"project_id"`
	Strategy  string           `json:"strategy" db:"strategy"`
	Report    ComplianceReport `json:"report" db:"report"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
