package catalog

import "firesafe-engine/internal/models"

// categoryDrawings 分类 → 适用的图纸类型
var categoryDrawings = map[models.Category][]models.DrawingType{
	models.CategoryExits:             {models.DrawingArchitectural},
	models.CategoryFireResistance:    {models.DrawingArchitectural, models.DrawingStructural},
	models.CategoryAlarm:             {models.DrawingElectrical, models.DrawingFire},
	models.CategoryEmergencyLighting: {models.DrawingElectrical},
	models.CategorySuppression:       {models.DrawingFire, models.DrawingPlumbing},
	models.CategorySmokeControl:      {models.DrawingMechanical, models.DrawingFire},
	models.CategoryWaterSupply:       {models.DrawingPlumbing, models.DrawingFire},
	models.CategoryHazard:            {models.DrawingArchitectural, models.DrawingFire},
}

// universalCategories 对所有图纸都适用
var universalCategories = map[models.Category]bool{
	models.CategoryMaintenance: true,
	models.CategoryTraining:    true,
	models.CategoryPenalty:     true,
}

// hazardBuildings hazard 分类只对这些建筑类型生效
var hazardBuildings = map[models.BuildingType]bool{
	models.BuildingIndustrial: true,
	models.BuildingStorage:    true,
}

// CategoryApplies 分类是否适用于给定图纸/建筑类型；未知分类一律不适用
func CategoryApplies(category models.Category, drawingType models.DrawingType, buildingType models.BuildingType) bool {
	if universalCategories[category] {
		return true
	}
	if category == models.CategoryHazard && !hazardBuildings[buildingType] {
		return false
	}
	for _, dt := range categoryDrawings[category] {
		if dt == drawingType {
			return true
		}
	}
	return false
}
