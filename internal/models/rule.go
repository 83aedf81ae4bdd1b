package models

import "strings"

// Severity 规则严重级别
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Rank 排序权重（critical=3, major=2, minor=1，未知为 0）
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityMajor:
		return 2
	case SeverityMinor:
		return 1
	}
	return 0
}

// Label 展示用名称
func (s Severity) Label() string {
	switch s {
	case SeverityCritical:
		return "Critical"
	case SeverityMajor:
		return "Major"
	case SeverityMinor:
		return "Minor"
	}
	return "Unknown"
}

// IsValid 是否为已知级别
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// DrawingType 图纸类型
type DrawingType string

const (
	DrawingArchitectural DrawingType = "architectural"
	DrawingStructural    DrawingType = "structural"
	DrawingElectrical    DrawingType = "electrical"
	DrawingMechanical    DrawingType = "mechanical"
	DrawingPlumbing      DrawingType = "plumbing"
	DrawingFire          DrawingType = "fire"
)

// DrawingTypes 全部已知图纸类型
var DrawingTypes = []DrawingType{
	DrawingArchitectural,
	DrawingStructural,
	DrawingElectrical,
	DrawingMechanical,
	DrawingPlumbing,
	DrawingFire,
}

// ParseDrawingType 解析图纸类型，未知返回 false
func ParseDrawingType(s string) (DrawingType, bool) {
	t := DrawingType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DrawingTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// BuildingType 建筑类型
type BuildingType string

const (
	BuildingResidential BuildingType = "residential"
	BuildingCommercial  BuildingType = "commercial"
	BuildingIndustrial  BuildingType = "industrial"
	BuildingStorage     BuildingType = "storage"
	BuildingHealthcare  BuildingType = "healthcare"
	BuildingEducational BuildingType = "educational"
	BuildingAssembly    BuildingType = "assembly"
)

// Category 规则分类
type Category string

const (
	CategoryExits             Category = "exits"
	CategoryFireResistance    Category = "fire_resistance"
	CategoryAlarm             Category = "alarm"
	CategoryEmergencyLighting Category = "emergency_lighting"
	CategorySuppression       Category = "suppression"
	CategorySmokeControl      Category = "smoke_control"
	CategoryWaterSupply       Category = "water_supply"
	CategoryHazard            Category = "hazard"
	CategoryMaintenance       Category = "maintenance"
	CategoryTraining          Category = "training"
	CategoryPenalty           Category = "penalty"
)

// RuleConditions 规则对项目本身的适用条件（零值表示不限制）
type RuleConditions struct {
	MinFloors     int            `json:"min_floors,omitempty" yaml:"min_floors"`
	MinAreaM2     float64        `json:"min_area_m2,omitempty" yaml:"min_area_m2"`
	MinOccupancy  int            `json:"min_occupancy,omitempty" yaml:"min_occupancy"`
	BuildingTypes []BuildingType `json:"building_types,omitempty" yaml:"building_types"`
}

// Rule 一条消防规范条款
type Rule struct {
	ID               string         `json:"id" yaml:"id"`
	Title            string         `json:"title" yaml:"title"`
	Chapter          string         `json:"chapter" yaml:"chapter"`
	Article          string         `json:"article" yaml:"article"`
	Category         Category       `json:"category" yaml:"category"`
	Severity         Severity       `json:"severity" yaml:"severity"`
	RequiredElements []string       `json:"required_elements,omitempty" yaml:"required_elements"`
	Description      string         `json:"description" yaml:"description"`
	Fix              string         `json:"fix" yaml:"fix"`
	Conditions       RuleConditions `json:"conditions" yaml:"conditions"`
}

// MatchesProject 检查楼层/面积/人数/建筑类型条件
func (r Rule) MatchesProject(p Project) bool {
	c := r.Conditions
	if c.MinFloors > 0 && p.Floors < c.MinFloors {
		return false
	}
	if c.MinAreaM2 > 0 && p.AreaM2 < c.MinAreaM2 {
		return false
	}
	if c.MinOccupancy > 0 && p.Occupancy < c.MinOccupancy {
		return false
	}
	if len(c.BuildingTypes) > 0 {
		for _, bt := range c.BuildingTypes {
			if bt == p.BuildingType {
				return true
			}
		}
		return false
	}
	return true
}
