package models

import "time"

// Project 送审项目（只包含规则实际会用到的字段）
type Project struct {
	ProjectID    string       `json:"project_id" db:"project_id"`
	Name         string       `json:"name" db:"name"`
	BuildingType BuildingType `json:"building_type" db:"building_type"`
	AreaM2       float64      `json:"area_m2" db:"area_m2"`
	Floors       int          `json:"floors" db:"floors"`
	Occupancy    int          `json:"occupancy" db:"occupancy"`
	Drawings     []Drawing    `json:"drawings"`
}

// Drawing 项目上传的一张图纸
type Drawing struct {
	DrawingID    string    `json:"drawing_id" db:"drawing_id"`
	FileName     string    `json:"file_name" db:"file_name"`
	Description  string    `json:"description,omitempty" db:"description"`
	DeclaredType string    `json:"declared_type,omitempty" db:"declared_type"` // 上传时选择的类型，可为空
	UploadedAt   time.Time `json:"uploaded_at" db:"uploaded_at"`
}
