package catalog

import (
	_ "embed"
	"fmt"
	"sort"

	"firesafe-engine/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// ViolationText 条款专用的违规描述与整改建议
type ViolationText struct {
	Description string `yaml:"description"`
	Fix         string `yaml:"fix"`
}

type document struct {
	Rules          []models.Rule            `yaml:"rules"`
	ViolationTexts map[string]ViolationText `yaml:"violation_texts"`
}

// Catalog 规则目录（进程启动时加载一次，之后只读）
type Catalog struct {
	rules []models.Rule
	byID  map[string]int
	texts map[string]ViolationText
}

// Load 加载内置规则
func Load() (*Catalog, error) {
	return Parse(defaultRules)
}

// Parse 从 YAML 文档构建目录
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule catalog: %w", err)
	}

	c := &Catalog{
		rules: make([]models.Rule, 0, len(doc.Rules)),
		byID:  make(map[string]int, len(doc.Rules)),
		texts: make(map[string]ViolationText, len(doc.ViolationTexts)),
	}

	for _, r := range doc.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule without id (title=%q)", r.Title)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %s", r.ID)
		}
		if !r.Severity.IsValid() {
			return nil, fmt.Errorf("rule %s has invalid severity %q", r.ID, r.Severity)
		}
		c.byID[r.ID] = len(c.rules)
		c.rules = append(c.rules, r)
	}

	for id, text := range doc.ViolationTexts {
		if _, ok := c.byID[id]; !ok {
			return nil, fmt.Errorf("violation text for unknown rule %s", id)
		}
		c.texts[id] = text
	}

	return c, nil
}

// Rules 全部规则（副本）
func (c *Catalog) Rules() []models.Rule {
	out := make([]models.Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = cloneRule(r)
	}
	return out
}

// Rule 按 id 查找
func (c *Catalog) Rule(id string) (models.Rule, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Rule{}, false
	}
	return cloneRule(c.rules[i]), true
}

// RulesApplicableTo 按分类适用表过滤，保持目录顺序
func (c *Catalog) RulesApplicableTo(drawingType models.DrawingType, buildingType models.BuildingType) []models.Rule {
	var out []models.Rule
	for _, r := range c.rules {
		if CategoryApplies(r.Category, drawingType, buildingType) {
			out = append(out, cloneRule(r))
		}
	}
	return out
}

// Text 返回违规描述和整改建议，没有专用文本时回退到规则的通用描述
func (c *Catalog) Text(ruleID string) (description, fix string) {
	i, ok := c.byID[ruleID]
	if !ok {
		return "", ""
	}
	r := c.rules[i]
	description, fix = r.Description, r.Fix
	if t, ok := c.texts[ruleID]; ok {
		if t.Description != "" {
			description = t.Description
		}
		if t.Fix != "" {
			fix = t.Fix
		}
	}
	return description, fix
}

// Chapters 按首次出现顺序返回章节列表
func (c *Catalog) Chapters() []string {
	seen := make(map[string]int)
	for i, r := range c.rules {
		if _, ok := seen[r.Chapter]; !ok {
			seen[r.Chapter] = i
		}
	}
	chapters := make([]string, 0, len(seen))
	for ch := range seen {
		chapters = append(chapters, ch)
	}
	sort.Slice(chapters, func(i, j int) bool { return seen[chapters[i]] < seen[chapters[j]] })
	return chapters
}

func cloneRule(r models.Rule) models.Rule {
	r.RequiredElements = append([]string(nil), r.RequiredElements...)
	r.Conditions.BuildingTypes = append([]models.BuildingType(nil), r.Conditions.BuildingTypes...)
	return r
}
