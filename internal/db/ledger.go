package db

import (
	"errors"

	"gorm.io/gorm"
)

// ErrLedgerImmutable 在尝试修改或删除台账行时返回
var ErrLedgerImmutable = errors.New("ledger entries are append-only")

// LedgerEntry is one append-only audit row. It snapshots the plant and
// environment fields relevant to the event at the time it happened. Rows
// form a digest chain: Digest covers the row content and PrevDigest.
type LedgerEntry struct {
	ID          uint   `gorm:"primaryKey"`
	EventEpoch  int64  `gorm:"not null;index"`
	OperationID string `gorm:"size:36;index"`
	Action      string `gorm:"size:64;not null;index"`

	PlantID     int64  `gorm:"index"`
	PlantKey    string `gorm:"size:300"`
	HarvestType string `gorm:"size:32"`
	GrowType    string `gorm:"size:32"`
	THC         float64
	CBD         float64

	BirthEpoch    int64
	HarvestEpoch  int64
	BottleEpoch   int64
	LowCureEpoch  int64
	MidCureEpoch  int64
	HighCureEpoch int64
	AgeInWeeks    int

	ContainerName       string `gorm:"size:64"`
	ContainerDimensions string `gorm:"size:32"`
	HarvestAmount       float64

	EnvironmentName     string `gorm:"size:255;index"`
	EnvironmentCapacity int
	GridOccupancy       string `gorm:"type:text"`

	Week       int
	Chemical   string `gorm:"size:64"`
	ChemicalML float64

	PrevDigest string `gorm:"size:64"`
	Digest     string `gorm:"size:64;not null"`
}

// TableName 固定表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// BeforeUpdate 拒绝任何更新
func (LedgerEntry) BeforeUpdate(*gorm.DB) error {
	return ErrLedgerImmutable
}

// BeforeDelete 拒绝任何删除
func (LedgerEntry) BeforeDelete(*gorm.DB) error {
	return ErrLedgerImmutable
}
