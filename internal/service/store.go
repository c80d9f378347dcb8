package service

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/vegcrib/internal/db"
	"github.com/vegcrib/internal/domain"
)

// Store 是 Backend 独占的内存快照：植株、环境、配方、覆盖项与 ID 计数器。
// 只有 Backend 在持锁状态下修改它
type Store struct {
	plants       map[int64]*domain.Plant
	environments map[string]*domain.ContainerEnvironment
	chemicals    []domain.Chemical
	overrides    []domain.Override
	nextPlantID  int64
	lastUpdated  time.Time
}

// NewStore 创建只包含内置配方的空状态
func NewStore() *Store {
	return &Store{
		plants:       make(map[int64]*domain.Plant),
		environments: make(map[string]*domain.ContainerEnvironment),
		chemicals:    domain.BaseChemicals(),
		nextPlantID:  1,
	}
}

func (s *Store) allocateID() int64 {
	id := s.nextPlantID
	s.nextPlantID++
	return id
}

// environment looks an environment up by its normalized name, so callers
// may pass "grow tent" for "Grow_Tent".
func (s *Store) environment(name string) (*domain.ContainerEnvironment, bool) {
	if env, ok := s.environments[name]; ok {
		return env, true
	}
	env, ok := s.environments[domain.NormalizeEnvironmentName(name)]
	return env, ok
}

func (s *Store) sortedPlantIDs() []int64 {
	ids := make([]int64, 0, len(s.plants))
	for id := range s.plants {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Store) sortedEnvironmentNames() []string {
	names := make([]string, 0, len(s.environments))
	for name := range s.environments {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return names
}

// 快照记录类型：显式字段，避免依赖运行时类型信息
type plantRecord struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	HarvestType    string  `json:"harvest_type"`
	GrowType       string  `json:"grow_type"`
	THC            float64 `json:"thc"`
	CBD            float64 `json:"cbd"`
	BirthDate      string  `json:"birth_date"`
	HarvestAmount  float64 `json:"harvest_amount"`
	ContainerRows  int     `json:"container_rows"`
	ContainerDepth int     `json:"container_depth"`
	Environment    string  `json:"environment"`
}

type environmentRecord struct {
	Name    string           `json:"name"`
	Rows    int              `json:"rows"`
	Columns int              `json:"columns"`
	Grid    map[string]int64 `json:"grid"`
}

type chemicalRecord struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	WeekML      []float64 `json:"week_ml"`
}

func encodeSnapshot(s *Store, now time.Time) (db.Snapshot, error) {
	plants := make(map[string]plantRecord, len(s.plants))
	for id, p := range s.plants {
		plants[fmt.Sprintf("%d", id)] = plantRecord{
			ID:             p.ID,
			Name:           p.Name,
			HarvestType:    p.HarvestType,
			GrowType:       p.GrowType,
			THC:            p.THC,
			CBD:            p.CBD,
			BirthDate:      p.BirthDate.Format(domain.DateLayout),
			HarvestAmount:  p.HarvestAmount,
			ContainerRows:  p.Container.Rows,
			ContainerDepth: p.Container.Depth,
			Environment:    p.EnvironmentName(),
		}
	}

	environments := make(map[string]environmentRecord, len(s.environments))
	for name, env := range s.environments {
		environments[name] = environmentRecord{
			Name:    env.Name,
			Rows:    env.Rows,
			Columns: env.Columns,
			Grid:    env.Occupancy(),
		}
	}

	chemicals := make(map[string]chemicalRecord, len(s.chemicals))
	for _, c := range s.chemicals {
		chemicals[c.Name] = chemicalRecord{Name: c.Name, Description: c.Description, WeekML: c.WeekML[:]}
	}

	plantsJSON, err := json.Marshal(plants)
	if err != nil {
		return db.Snapshot{}, fmt.Errorf("encode plants: %w", err)
	}
	environmentsJSON, err := json.Marshal(environments)
	if err != nil {
		return db.Snapshot{}, fmt.Errorf("encode environments: %w", err)
	}
	chemicalsJSON, err := json.Marshal(chemicals)
	if err != nil {
		return db.Snapshot{}, fmt.Errorf("encode chemicals: %w", err)
	}

	return db.Snapshot{
		ID:                    db.SnapshotRowID,
		LastUpdated:           now,
		NextPlantID:           s.nextPlantID,
		Chemicals:             string(chemicalsJSON),
		Plants:                string(plantsJSON),
		ContainerEnvironments: string(environmentsJSON),
	}, nil
}

// decodeSnapshot rebuilds a Store from a snapshot row. Plants whose
// environment is empty (a move interrupted between its two phases) are
// returned unplaced for the caller to repair.
func decodeSnapshot(row db.Snapshot) (*Store, []*domain.Plant, error) {
	store := NewStore()
	store.lastUpdated = row.LastUpdated

	var chemicals map[string]chemicalRecord
	if err := unmarshalText(row.Chemicals, &chemicals); err != nil {
		return nil, nil, fmt.Errorf("decode chemicals: %w", err)
	}
	if len(chemicals) > 0 {
		store.chemicals = mergeChemicals(chemicals)
	}

	var environments map[string]environmentRecord
	if err := unmarshalText(row.ContainerEnvironments, &environments); err != nil {
		return nil, nil, fmt.Errorf("decode environments: %w", err)
	}
	var plants map[string]plantRecord
	if err := unmarshalText(row.Plants, &plants); err != nil {
		return nil, nil, fmt.Errorf("decode plants: %w", err)
	}

	var maxID int64
	for _, rec := range plants {
		birth, err := time.Parse(domain.DateLayout, rec.BirthDate)
		if err != nil {
			return nil, nil, fmt.Errorf("decode plant %d birth date: %w", rec.ID, err)
		}
		store.plants[rec.ID] = domain.RestorePlant(rec.ID, rec.Name, rec.HarvestType, rec.GrowType,
			rec.THC, rec.CBD, birth, rec.HarvestAmount, rec.ContainerRows, rec.ContainerDepth)
		maxID = max(maxID, rec.ID)
	}

	for _, rec := range environments {
		env, err := domain.RestoreContainerEnvironment(rec.Name, rec.Rows, rec.Columns)
		if err != nil {
			return nil, nil, fmt.Errorf("decode environment %s: %w", rec.Name, err)
		}
		for slotKey, plantID := range rec.Grid {
			plant, ok := store.plants[plantID]
			if !ok {
				return nil, nil, fmt.Errorf("decode environment %s: slot %s references unknown plant %d", rec.Name, slotKey, plantID)
			}
			if err := env.Place(slotKey, plant); err != nil {
				return nil, nil, fmt.Errorf("decode environment %s: %w", rec.Name, err)
			}
			plant.Environment = env
		}
		store.environments[env.Name] = env
	}

	var unplaced []*domain.Plant
	for _, id := range store.sortedPlantIDs() {
		plant := store.plants[id]
		rec := plants[fmt.Sprintf("%d", id)]
		if plant.Environment == nil {
			unplaced = append(unplaced, plant)
			continue
		}
		if plant.Environment.Name != rec.Environment {
			return nil, nil, fmt.Errorf("decode plant %d: placed in %s but references %s", id, plant.Environment.Name, rec.Environment)
		}
	}

	store.nextPlantID = max(row.NextPlantID, maxID+1, 1)
	return store, unplaced, nil
}

// mergeChemicals 保持内置配方顺序，持久化中额外的配方追加在后
func mergeChemicals(records map[string]chemicalRecord) []domain.Chemical {
	chemicals := make([]domain.Chemical, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, base := range domain.BaseChemicals() {
		rec, ok := records[base.Name]
		if !ok {
			continue
		}
		chemicals = append(chemicals, chemicalFromRecord(rec))
		seen[base.Name] = true
	}

	extra := make([]string, 0)
	for name := range records {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	for _, name := range extra {
		chemicals = append(chemicals, chemicalFromRecord(records[name]))
	}
	return chemicals
}

func chemicalFromRecord(rec chemicalRecord) domain.Chemical {
	chemical := domain.Chemical{Name: rec.Name, Description: rec.Description}
	copy(chemical.WeekML[:], rec.WeekML)
	return chemical
}

func unmarshalText(raw string, dst any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
