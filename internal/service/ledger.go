package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vegcrib/internal/db"
	"github.com/vegcrib/internal/domain"
	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"
)

// 台账动作标签
const (
	ActionCreateEnvironment       = "CREATE ENVIRONMENT"
	ActionDeleteEnvironment       = "DELETE ENVIRONMENT"
	ActionDeleteEnvironmentFailed = "DELETE ENVIRONMENT FAILED"
	ActionCreatePlant             = "CREATE PLANT"
	ActionCreatePlantFailed       = "CREATE PLANT FAILED"
	ActionMoveRemove              = "MOVE (REMOVE)"
	ActionMoveAdd                 = "MOVE (ADD)"
	ActionMoveRollback            = "MOVE FAILED (ROLLBACK)"
	ActionRelocatePlant           = "RELOCATE PLANT"
	ActionHarvestPlant            = "HARVEST PLANT"
	ActionDeletePlant             = "DELETE PLANT"
	ActionWaterPlant              = "WATER PLANT"
	ActionSetOverride             = "SET OVERRIDE"
)

// HarvestKeyPrefix marks the plant key of a HARVEST PLANT row. It is
// stripped again by OriginalPlantKey.
const HarvestKeyPrefix = "DELETE_"

// WaterAction 返回某一配方的浇灌动作标签
func WaterAction(chemical string) string {
	return fmt.Sprintf("%s (%s)", ActionWaterPlant, chemical)
}

// OriginalPlantKey 去掉收获行的前缀
func OriginalPlantKey(key string) string {
	return strings.TrimPrefix(key, HarvestKeyPrefix)
}

// Ledger 负责追加与查询审计台账，行一经写入不再修改
type Ledger struct {
	db *gorm.DB
}

// LedgerFilter 描述台账查询条件
type LedgerFilter struct {
	PlantID     int64
	Environment string
	Action      string
	OperationID string
	Limit       int
}

// LedgerVerification 是摘要链校验结果
type LedgerVerification struct {
	Rows     int    `json:"rows"`
	Valid    bool   `json:"valid"`
	BrokenAt uint   `json:"broken_at,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

const (
	defaultLedgerLimit = 200
	maxLedgerLimit     = 5000
	verifyBatchSize    = 500
)

// NewLedger 构造 Ledger
func NewLedger(gdb *gorm.DB) *Ledger {
	return &Ledger{db: gdb}
}

// List returns matching rows in append order, keeping the most recent
// Limit rows.
func (l *Ledger) List(ctx context.Context, filter LedgerFilter) ([]db.LedgerEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	limit = min(limit, maxLedgerLimit)

	query := l.db.WithContext(ctx).Model(&db.LedgerEntry{})
	if filter.PlantID != 0 {
		query = query.Where("plant_id = ?", filter.PlantID)
	}
	if env := strings.TrimSpace(filter.Environment); env != "" {
		query = query.Where("environment_name = ?", domain.NormalizeEnvironmentName(env))
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("action LIKE ?", strings.ToUpper(action)+"%")
	}
	if filter.OperationID != "" {
		query = query.Where("operation_id = ?", filter.OperationID)
	}

	var entries []db.LedgerEntry
	if err := query.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Verify walks the whole ledger in append order and recomputes the digest
// chain, reporting the first row that does not match.
func (l *Ledger) Verify(ctx context.Context) (LedgerVerification, error) {
	result := LedgerVerification{Valid: true}
	prev := ""

	var batch []db.LedgerEntry
	err := l.db.WithContext(ctx).FindInBatches(&batch, verifyBatchSize, func(_ *gorm.DB, _ int) error {
		for _, entry := range batch {
			if !result.Valid {
				return nil
			}
			result.Rows++
			if entry.PrevDigest != prev {
				result.Valid = false
				result.BrokenAt = entry.ID
				result.Reason = "previous digest does not match preceding row"
				return nil
			}
			if digestEntry(entry) != entry.Digest {
				result.Valid = false
				result.BrokenAt = entry.ID
				result.Reason = "row content does not match its digest"
				return nil
			}
			prev = entry.Digest
		}
		return nil
	}).Error
	if err != nil {
		return LedgerVerification{}, fmt.Errorf("verify ledger: %w", err)
	}
	return result, nil
}

// append chains and inserts entries inside the caller's transaction.
func (l *Ledger) append(tx *gorm.DB, entries []db.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var last db.LedgerEntry
	res := tx.Order("id DESC").Limit(1).Find(&last)
	if res.Error != nil {
		return fmt.Errorf("read ledger head: %w", res.Error)
	}
	prev := ""
	if res.RowsAffected > 0 {
		prev = last.Digest
	}

	for i := range entries {
		entries[i].PrevDigest = prev
		entries[i].Digest = digestEntry(entries[i])
		if err := tx.Create(&entries[i]).Error; err != nil {
			return fmt.Errorf("append ledger entry %s: %w", entries[i].Action, err)
		}
		prev = entries[i].Digest
	}
	return nil
}

func digestEntry(e db.LedgerEntry) string {
	fields := []string{
		strconv.FormatInt(e.EventEpoch, 10),
		e.OperationID,
		e.Action,
		strconv.FormatInt(e.PlantID, 10),
		e.PlantKey,
		e.HarvestType,
		e.GrowType,
		formatFloat(e.THC),
		formatFloat(e.CBD),
		strconv.FormatInt(e.BirthEpoch, 10),
		strconv.FormatInt(e.HarvestEpoch, 10),
		strconv.FormatInt(e.BottleEpoch, 10),
		strconv.FormatInt(e.LowCureEpoch, 10),
		strconv.FormatInt(e.MidCureEpoch, 10),
		strconv.FormatInt(e.HighCureEpoch, 10),
		strconv.Itoa(e.AgeInWeeks),
		e.ContainerName,
		e.ContainerDimensions,
		formatFloat(e.HarvestAmount),
		e.EnvironmentName,
		strconv.Itoa(e.EnvironmentCapacity),
		e.GridOccupancy,
		strconv.Itoa(e.Week),
		e.Chemical,
		formatFloat(e.ChemicalML),
		e.PrevDigest,
	}
	sum := blake2b.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// newEntry snapshots plant and env (either may be nil) into a ledger row.
func newEntry(opID, action string, now time.Time, plant *domain.Plant, env *domain.ContainerEnvironment) db.LedgerEntry {
	entry := db.LedgerEntry{
		EventEpoch:  now.Unix(),
		OperationID: opID,
		Action:      action,
	}

	if plant != nil {
		m := plant.Milestones()
		entry.PlantID = plant.ID
		entry.PlantKey = plant.Key()
		entry.HarvestType = plant.HarvestType
		entry.GrowType = plant.GrowType
		entry.THC = plant.THC
		entry.CBD = plant.CBD
		entry.BirthEpoch = plant.BirthDate.Unix()
		entry.HarvestEpoch = m.Harvest.Unix()
		entry.BottleEpoch = m.Bottle.Unix()
		entry.LowCureEpoch = m.LowCure.Unix()
		entry.MidCureEpoch = m.MidCure.Unix()
		entry.HighCureEpoch = m.HighCure.Unix()
		entry.AgeInWeeks = plant.AgeInWeeks(now)
		entry.ContainerName = plant.Container.Label()
		entry.ContainerDimensions = plant.Container.Dimensions()
		entry.HarvestAmount = plant.HarvestAmount
	}

	if env != nil {
		entry.EnvironmentName = env.Name
		entry.EnvironmentCapacity = env.MaxSize()
		entry.GridOccupancy = occupancyJSON(env)
	}

	return entry
}

func occupancyJSON(env *domain.ContainerEnvironment) string {
	raw, err := json.Marshal(env.Occupancy())
	if err != nil {
		return "{}"
	}
	return string(raw)
}
