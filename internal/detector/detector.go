// Package detector 图纸类型识别与元素检测（关键词 + 固定查找表，不做图像识别）
package detector

import (
	"strings"

	"firesafe-engine/internal/models"
)

// Detector 评估器依赖的检测接口
type Detector interface {
	ResolveDrawingType(fileName, description string) models.DrawingType
	Detect(drawingType models.DrawingType) []string
}

type keywordGroup struct {
	drawingType models.DrawingType
	keywords    []string
}

// vocabulary 按顺序匹配，先命中者优先
var vocabulary = []keywordGroup{
	{models.DrawingFire, []string{"fire", "sprinkler", "حريق", "إطفاء", "اطفاء", "رشاشات"}},
	{models.DrawingElectrical, []string{"electrical", "elec", "lighting", "power", "كهرباء", "إنارة", "انارة"}},
	{models.DrawingMechanical, []string{"mechanical", "mech", "hvac", "ventilation", "تكييف", "ميكانيكا", "تهوية"}},
	{models.DrawingPlumbing, []string{"plumbing", "sanitary", "drainage", "صحي", "سباكة", "صرف"}},
	{models.DrawingStructural, []string{"structural", "struct", "concrete", "إنشائي", "انشائي", "خرسانة"}},
	{models.DrawingArchitectural, []string{"architectural", "arch", "floor plan", "layout", "معماري", "مسقط"}},
}

var defaultElements = map[models.DrawingType][]string{
	models.DrawingArchitectural: {"emergency exit", "exit door", "stairway", "corridor", "fire door", "exit sign"},
	models.DrawingStructural:    {"fire rated wall", "structural column", "fire rated slab"},
	models.DrawingElectrical:    {"emergency lighting", "exit sign", "fire alarm panel", "smoke detector", "manual call point"},
	models.DrawingMechanical:    {"smoke exhaust fan", "fire damper", "pressurization fan", "ventilation duct"},
	models.DrawingPlumbing:      {"fire water tank", "fire hydrant", "riser", "water pump"},
	models.DrawingFire:          {"sprinkler", "fire extinguisher", "fire hose cabinet", "fire alarm panel", "fire pump"},
}

// KeywordDetector 默认实现
type KeywordDetector struct {
	elements map[models.DrawingType][]string
}

// New 使用内置元素表
func New() *KeywordDetector {
	return NewWithElements(defaultElements)
}

// NewWithElements 使用自定义元素表（测试用）
func NewWithElements(elements map[models.DrawingType][]string) *KeywordDetector {
	copied := make(map[models.DrawingType][]string, len(elements))
	for k, v := range elements {
		copied[k] = append([]string(nil), v...)
	}
	return &KeywordDetector{elements: copied}
}

// ResolveDrawingType 根据文件名和描述识别图纸类型，无匹配时默认 architectural
func (d *KeywordDetector) ResolveDrawingType(fileName, description string) models.DrawingType {
	text := strings.ToLower(fileName + " " + description)
	for _, group := range vocabulary {
		for _, kw := range group.keywords {
			if strings.Contains(text, kw) {
				return group.drawingType
			}
		}
	}
	return models.DrawingArchitectural
}

// Detect 返回该图纸类型"检测到"的元素；未知类型返回空
func (d *KeywordDetector) Detect(drawingType models.DrawingType) []string {
	elements, ok := d.elements[drawingType]
	if !ok {
		return []string{}
	}
	return append([]string(nil), elements...)
}
