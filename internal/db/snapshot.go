package db

import "time"

// SnapshotRowID 是唯一快照行的主键
const SnapshotRowID = 1

// Snapshot 保存最新的完整状态，仅有一行。
// Chemicals/Plants/ContainerEnvironments 为显式记录类型的 JSON 文本
type Snapshot struct {
	ID                    uint `gorm:"primaryKey"`
	LastUpdated           time.Time
	NextPlantID           int64  `gorm:"not null;default:1"`
	Chemicals             string `gorm:"type:text"`
	Plants                string `gorm:"type:text"`
	ContainerEnvironments string `gorm:"type:text"`
}

// TableName 固定表名
func (Snapshot) TableName() string {
	return "snapshots"
}
