package report

import (
	"bytes"
	"fmt"

	"firesafe-engine/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet    = "Summary"
	violationsSheet = "Violations"
)

// ViolationsHeader 违规明细表头
var ViolationsHeader = []string{
	"Rule ID",
	"Title",
	"Chapter",
	"Article",
	"Severity",
	"Element",
	"Location",
	"Description",
	"Suggested Fix",
}

// ExportXLSX 将报告内容导出为 Excel（汇总 + 违规明细 两个工作表）
func ExportXLSX(title string, r models.ComplianceReport) ([]byte, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(violationsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FDE9E7"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 汇总
	summary := [][]interface{}{
		{"Project", title},
		{"Compliance Score", r.ComplianceScore},
		{"Overall Status", string(r.OverallStatus)},
		{"Critical Issues", r.CriticalIssues},
		{"Major Issues", r.MajorIssues},
		{"Minor Issues", r.MinorIssues},
	}
	row := 1
	for _, kv := range summary {
		if err := setRow(f, summarySheet, row, kv); err != nil {
			f.Close()
			return nil, err
		}
		row++
	}
	row++
	if err := setRow(f, summarySheet, row, []interface{}{"Recommendations"}); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	for _, rec := range r.Recommendations {
		row++
		if err := setRow(f, summarySheet, row, []interface{}{rec}); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 30); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	// 违规明细
	header := make([]interface{}, len(ViolationsHeader))
	for i, h := range ViolationsHeader {
		header[i] = h
	}
	if err := setRow(f, violationsSheet, 1, header); err != nil {
		f.Close()
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(ViolationsHeader), 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(violationsSheet, "A1", last, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	for i, v := range r.Violations {
		values := []interface{}{
			v.RuleID, v.RuleTitle, v.Chapter, v.Article, v.Severity.Label(),
			v.ElementType, v.Location, v.Description, v.SuggestedFix,
		}
		if err := setRow(f, violationsSheet, i+2, values); err != nil {
			f.Close()
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
