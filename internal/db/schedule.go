package db

import "time"

// ScheduleOverride 记录调用方设置的剂量覆盖，ID 即插入顺序
type ScheduleOverride struct {
	ID        uint   `gorm:"primaryKey"`
	Week      int    `gorm:"not null;index"`
	Chemical  string `gorm:"size:64;not null;index"`
	Value     float64
	CreatedAt time.Time
}

// TableName 固定表名
func (ScheduleOverride) TableName() string {
	return "schedule_overrides"
}

// ChemicalApplication 记录一次浇灌中实际施用的配方剂量
type ChemicalApplication struct {
	ID          uint   `gorm:"primaryKey"`
	PlantID     int64  `gorm:"not null;index"`
	OperationID string `gorm:"size:36;index"`
	Chemical    string `gorm:"size:64"`
	ML          float64
	Litres      float64
	Week        int
	EventEpoch  int64 `gorm:"not null;index"`
}

// TableName 固定表名
func (ChemicalApplication) TableName() string {
	return "chemical_applications"
}
