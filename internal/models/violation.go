package models

// Violation 一条不符合项（只存在于一次评估结果中）
type Violation struct {
	RuleID       string   `json:"rule_id"`
	RuleTitle    string   `json:"rule_title"`
	Chapter      string   `json:"chapter"`
	Article      string   `json:"article"`
	Severity     Severity `json:"severity"`
	Description  string   `json:"description"`
	SuggestedFix string   `json:"suggested_fix"`
	ElementType  string   `json:"element_type"`
	Location     string   `json:"location,omitempty"`
}
