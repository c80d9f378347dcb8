package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vegcrib/internal/db"
	"github.com/vegcrib/internal/domain"
	"gorm.io/gorm"
)

// DefaultWaterLitres 是未指定水量时记录的浇灌体积
const DefaultWaterLitres = 4.0

// Options 配置 Backend 的可替换协作者，零值可用
type Options struct {
	Clock    domain.Clock
	Logger   *zerolog.Logger
	Recorder Recorder
}

// Backend owns the in-memory Store and is the only writer of the snapshot
// and ledger tables. Every exported method takes mu, so callers may share a
// Backend across goroutines.
//
// When a write to the database fails the in-memory change is kept and the
// method returns its result together with a *domain.PersistenceError.
type Backend struct {
	mu      sync.Mutex
	db      *gorm.DB
	store   *Store
	ledger  *Ledger
	clock   domain.Clock
	log     zerolog.Logger
	metrics Recorder
}

// NewBackend 构造 Backend，调用 Load 之前状态为空
func NewBackend(gdb *gorm.DB, opts Options) *Backend {
	b := &Backend{
		db:      gdb,
		store:   NewStore(),
		ledger:  NewLedger(gdb),
		clock:   opts.Clock,
		log:     zerolog.Nop(),
		metrics: opts.Recorder,
	}
	if b.clock == nil {
		b.clock = domain.SystemClock{}
	}
	if opts.Logger != nil {
		b.log = opts.Logger.With().Str("component", "backend").Logger()
	}
	if b.metrics == nil {
		b.metrics = nopRecorder{}
	}
	return b
}

// Ledger 返回台账查询入口
func (b *Backend) Ledger() *Ledger {
	return b.ledger
}

// Load replaces the in-memory state with the persisted snapshot and
// overrides. A missing snapshot starts an empty store and writes it. Plants
// left without an environment by an interrupted move are put back into the
// environment they were removed from.
func (b *Backend) Load(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { b.metrics.Observe("load", err, time.Since(start)) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	var row db.Snapshot
	res := b.db.WithContext(ctx).Limit(1).Find(&row, db.SnapshotRowID)
	if res.Error != nil {
		return &domain.PersistenceError{Op: "load snapshot", Err: res.Error}
	}

	if res.RowsAffected == 0 {
		b.store = NewStore()
		b.log.Info().Msg("no snapshot found, starting empty")
		if err := b.persist(ctx, "initial snapshot"); err != nil {
			return err
		}
		return nil
	}

	store, unplaced, err := decodeSnapshot(row)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	var overrides []db.ScheduleOverride
	if err := b.db.WithContext(ctx).Order("id ASC").Find(&overrides).Error; err != nil {
		return &domain.PersistenceError{Op: "load overrides", Err: err}
	}
	for _, o := range overrides {
		store.overrides = append(store.overrides, domain.Override{
			Week:     o.Week,
			Chemical: o.Chemical,
			Value:    o.Value,
			Seq:      int64(o.ID),
		})
	}

	b.store = store
	for _, plant := range unplaced {
		if err := b.repairUnplaced(ctx, plant); err != nil {
			return err
		}
	}

	for _, name := range b.store.sortedEnvironmentNames() {
		b.observeOccupancy(b.store.environments[name])
	}
	b.log.Info().
		Int("plants", len(b.store.plants)).
		Int("environments", len(b.store.environments)).
		Int("overrides", len(b.store.overrides)).
		Msg("snapshot loaded")
	return nil
}

func (b *Backend) repairUnplaced(ctx context.Context, plant *domain.Plant) error {
	var removed db.LedgerEntry
	res := b.db.WithContext(ctx).
		Where("plant_id = ? AND action = ?", plant.ID, ActionMoveRemove).
		Order("id DESC").Limit(1).Find(&removed)
	if res.Error != nil {
		return &domain.PersistenceError{Op: "read move history", Err: res.Error}
	}

	candidates := make([]*domain.ContainerEnvironment, 0, len(b.store.environments))
	if env, ok := b.store.environment(removed.EnvironmentName); res.RowsAffected > 0 && ok {
		candidates = append(candidates, env)
	}
	for _, name := range b.store.sortedEnvironmentNames() {
		candidates = append(candidates, b.store.environments[name])
	}

	for _, env := range candidates {
		slot, ok := env.Add(plant)
		if !ok {
			continue
		}
		plant.Environment = env
		b.log.Warn().
			Int64("plant_id", plant.ID).
			Str("environment", env.Name).
			Str("slot", slot).
			Msg("restored plant left unplaced by interrupted move")
		opID := uuid.NewString()
		return b.persist(ctx, "repair move", newEntry(opID, ActionMoveRollback, b.clock.Now(), plant, env))
	}
	return fmt.Errorf("load snapshot: plant %d has no environment and no environment has room", plant.ID)
}

// CreateEnvironment 创建空网格环境，名称规范化后必须唯一
func (b *Backend) CreateEnvironment(ctx context.Context, name string, rows, columns int) (view EnvironmentView, err error) {
	start := time.Now()
	defer func() { b.metrics.Observe("create_environment", err, time.Since(start)) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	env, err := domain.NewContainerEnvironment(name, rows, columns)
	if err != nil {
		return EnvironmentView{}, err
	}
	if _, exists := b.store.environments[env.Name]; exists {
		return EnvironmentView{}, &domain.ConflictError{Environment: env.Name, Reason: "environment already exists"}
	}

	b.store.environments[env.Name] = env
	b.observeOccupancy(env)
	b.log.Info().Str("environment", env.Name).Int("rows", rows).Int("columns", columns).Msg("environment created")

	opID := uuid.NewString()
	err = b.persist(ctx, "create environment", newEntry(opID, ActionCreateEnvironment, b.clock.Now(), nil, env))
	return environmentView(env), err
}

// DeleteEnvironment removes an empty environment. A non-empty one is refused
// with a *domain.ConflictError listing its occupants.
func (b *Backend) DeleteEnvironment(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { b.metrics.Observe("delete_environment", err, time.Since(start)) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	env, ok := b.store.environment(name)
	if !ok {
		return domain.EnvironmentNotFound(name)
	}

	opID := uuid.NewString()
	if !env.IsEmpty() {
		conflict := &domain.ConflictError{
			Environment: env.Name,
			Reason:      "environment still has plants",
			Occupants:   env.Occupants(),
		}
		b.log.Warn().Str("environment", env.Name).Int("occupied", env.Occupied()).Msg("refused to delete non-empty environment")
		if err := b.appendLedger(ctx, "delete environment", newEntry(opID, ActionDeleteEnvironmentFailed, b.clock.Now(), nil, env)); err != nil {
			return errors.Join(conflict, err)
		}
		return conflict
	}

	delete(b.store.environments, env.Name)
	b.metrics.ForgetEnvironment(env.Name)
	b.log.Info().Str("environment", env.Name).Msg("environment deleted")
	return b.persist(ctx, "delete environment", newEntry(opID, ActionDeleteEnvironment, b.clock.Now(), nil, env))
}

// CreatePlant validates spec, places the plant in the first free slot of its
// environment and persists it. A full environment yields a
// *domain.CapacityError and a CREATE PLANT FAILED ledger row; nothing else
// changes.
func (b *Backend) CreatePlant(ctx context.Context, spec domain.PlantSpec) (view PlantView, err error) {
	start := time.Now()
	defer func() { b.metrics.Observe("create_plant", err, time.Since(start)) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	env, _ := b.store.environment(spec.Environment)
	if env == nil && strings.TrimSpace(spec.Environment) == "" {
		return PlantView{}, &domain.ValidationError{Field: "environment", Reason: "must not be empty"}
	}

	plant, err := domain.NewPlant(b.store.nextPlantID, spec, env, now)
	var capacity *domain.CapacityError
	if errors.As(err, &capacity) {
		return PlantView{}, b.recordCreateFailure(ctx, spec, env, capacity)
	}
	if err != nil {
		return PlantView{}, err
	}

	slot, ok := env.Add(plant)
	if !ok {
		return PlantView{}, b.recordCreateFailure(ctx, spec, env, &domain.CapacityError{Environment: env.Name, MaxSize: env.MaxSize()})
	}
	b.store.allocateID()
	plant.Environment = env
	b.store.plants[plant.ID] = plant
	b.observeOccupancy(env)
	b.log.Info().
		Int64("plant_id", plant.ID).
		Str("plant", plant.Key()).
		Str("environment", env.Name).
		Str("slot", slot).
		Msg("plant created")

	opID := uuid.NewString()
	err = b.persist(ctx, "create plant", newEntry(opID, ActionCreatePlant, now, plant, env))
	return plantView(plant, now), err
}

func (b *Backend) recordCreateFailure(ctx context.Context, spec domain.PlantSpec, env *domain.ContainerEnvironment, capacity *domain.CapacityError) error {
	now := b.clock.Now()
	entry := newEntry(uuid.NewString(), ActionCreatePlantFailed, now, nil, env)
	entry.PlantKey = fmt.Sprintf("%s_%s", strings.TrimSpace(spec.Name), spec.BirthDate.Format(domain.DateLayout))
	entry.HarvestType = strings.ToLower(strings.TrimSpace(spec.HarvestType))
	entry.GrowType = strings.ToLower(strings.TrimSpace(spec.GrowType))
	entry.THC = spec.THC
	entry.CBD = spec.CBD
	entry.ContainerDimensions = spec.ContainerDimensions

	b.log.Warn().Str("environment", capacity.Environment).Int("max_size", capacity.MaxSize).Msg("plant rejected, environment full")
	if err := b.appendLedger(ctx, "create plant", entry); err != nil {
		return errors.Join(capacity, err)
	}
	return capacity
}

// MovePlant moves a plant into the first free slot of another environment.
// The plant is removed from its source first (MOVE (REMOVE)), then added to
// the destination (MOVE (ADD)); when the destination is full it goes back to
// the slot it came from (MOVE FAILED (ROLLBACK)) and a *domain.CapacityError
// is returned. Each step is persisted on its own.
func (b *Backend) MovePlant(ctx context.Context, plantID int64, destination string) (view PlantView, err error) {
	start := time.Now()
	defer func() { b.metrics.Observe("move_plant", err, time.Since(start)) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	plant, ok := b.store.plants[plantID]
	if !ok {
		return PlantView{}, domain.PlantNotFound(plantID)
	}
	dest, ok := b.store.environment(destination)
	if !ok {
		return PlantView{}, domain.EnvironmentNotFound(destination)
	}
	source := plant.Environment
	if source == nil {
		return PlantView{}, fmt.Errorf("move plant %d: plant has no environment", plantID)
	}
	if source == dest {
		return PlantView{}, &domain.ValidationError{Field: "environment", Reason: fmt.Sprintf("plant is already in %s", dest.Name)}
	}

	opID := uuid.NewString()
	originalSlot, _ := source.SlotOf(plant.ID)

	if !source.Remove(plant.ID) {
		return PlantView{}, domain.PlantNotFound(plantID)
	}
	plant.Environment = nil
	b.observeOccupancy(source)
	persistErr := b.persist(ctx, "move plant", newEntry(opID, ActionMoveRemove, b.clock.Now(), plant, source))

	slot, added := dest.Add(plant)
	if added {
		plant.Environment = dest
		b.observeOccupancy(dest)
		if err := b.persist(ctx, "move plant", newEntry(opID, ActionMoveAdd, b.clock.Now(), plant, dest)); err != nil && persistErr == nil {
			persistErr = err
		}
		b.log.Info().
			Int64("plant_id", plant.ID).
			Str("from", source.Name).
			Str("to", dest.Name).
			Str("slot", slot).
			Msg("plant moved")
		return plantView(plant, b.clock.Now()), persistErr
	}

	if err := source.Place(originalSlot, plant); err != nil {
		// 原槽位不应被占用；退回首个空位
		if _, ok := source.Add(plant); !ok {
			return PlantView{}, fmt.Errorf("move plant %d: rollback into %s: %w", plant.ID, source.Name, err)
		}
	}
	plant.Environment = source
	b.observeOccupancy(source)
	if err := b.persist(ctx, "move plant", newEntry(opID, ActionMoveRollback, b.clock.Now(), plant, source)); err != nil && persistErr == nil {
		persistErr = err
	}
	b.log.Warn().
		Int64("plant_id", plant.ID).
		Str("from", source.Name).
		Str("to", dest.Name).
		Msg("move rolled back, destination full")

	capacity := &domain.CapacityError{Environment: dest.Name, MaxSize: dest.MaxSize()}
	if persistErr != nil {
		return PlantView{}, errors.Join(capacity, persistErr)
	}
	return PlantView{}, capacity
}

// RelocatePlant moves a plant to another empty slot of its own environment.
func (b *Backend) RelocatePlant(ctx context.Context, plantID int64, slot string) (view PlantView, err error) {
	start := time.Now()
	defer func() { b.metrics.Observe("relocate_plant", err, time.Since(start)) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	plant, ok := b.store.plants[plantID]
	if !ok {
		return PlantView{}, domain.PlantNotFound(plantID)
	}
	env := plant.Environment
	if env == nil {
		return PlantView{}, fmt.Errorf("relocate plant %d: plant has no environment", plantID)
	}

	slot = strings.TrimSpace(slot)
	if !env.Move(plant, slot) {
		for _, occupant := range env.Occupants() {
			if occupant.Slot == slot {
				return PlantView{}, &domain.ConflictError{
					Environment: env.Name,
					Reason:      fmt.Sprintf("slot %s is occupied", slot),
					Occupants:   []domain.Occupant{occupant},
				}
			}
		}
		return PlantView{}, &domain.ValidationError{Field: "slot", Reason: fmt.Sprintf("%q is not a slot of %s", slot, env.Name)}
	}

	b.log.Info().Int64("plant_id", plant.ID).Str("environment", env.Name).Str("slot", slot).Msg("plant relocated")
	now := b.clock.Now()
	err = b.persist(ctx, "relocate plant", newEntry(uuid.NewString(), ActionRelocatePlant, now, plant, env))
	return plantView(plant, now), err
}

// DeletePlant harvests a plant: it records harvestAmount, frees its slot and
// drops it from the store. The ledger gets a HARVEST PLANT row followed by a
// DELETE PLANT row.
func (b *Backend) DeletePlant(ctx context.Context, plantID int64, harvestAmount float64) (view PlantView, err error) {
	start := time.Now()
	defer func() { b.metrics.Observe("delete_plant", err, time.Since(start)) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	if math.IsNaN(harvestAmount) || math.IsInf(harvestAmount, 0) || harvestAmount < 0 {
		return PlantView{}, &domain.ValidationError{Field: "harvest_amount", Reason: fmt.Sprintf("%v must be a non-negative number", harvestAmount)}
	}
	plant, ok := b.store.plants[plantID]
	if !ok {
		return PlantView{}, domain.PlantNotFound(plantID)
	}

	now := b.clock.Now()
	opID := uuid.NewString()
	plant.HarvestAmount = harvestAmount
	env := plant.Environment

	harvest := newEntry(opID, ActionHarvestPlant, now, plant, env)
	harvest.PlantKey = HarvestKeyPrefix + harvest.PlantKey
	view = plantView(plant, now)

	if env != nil {
		env.Remove(plant.ID)
		b.observeOccupancy(env)
	}
	delete(b.store.plants, plant.ID)
	removal := newEntry(opID, ActionDeletePlant, now, plant, env)
	plant.Environment = nil

	b.log.Info().
		Int64("plant_id", plant.ID).
		Str("plant", plant.Key()).
		Float64("harvest_amount", harvestAmount).
		Msg("plant harvested")
	return view, b.persist(ctx, "delete plant", harvest, removal)
}

// RecordWatering logs the doses a plant receives for its current week,
// one ledger row per chemical with a non-zero dose.
func (b *Backend) RecordWatering(ctx context.Context, plantID int64, litres float64) (view ScheduleView, err error) {
	start := time.Now()
	defer func() { b.metrics.Observe("record_watering", err, time.Since(start)) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	if litres == 0 {
		litres = DefaultWaterLitres
	}
	if math.IsNaN(litres) || math.IsInf(litres, 0) || litres < 0 {
		return ScheduleView{}, &domain.ValidationError{Field: "litres", Reason: fmt.Sprintf("%v must be a positive number", litres)}
	}
	plant, ok := b.store.plants[plantID]
	if !ok {
		return ScheduleView{}, domain.PlantNotFound(plantID)
	}

	now := b.clock.Now()
	entry := domain.ScheduleForAge(plant.ID, plant.AgeInWeeks(now), b.store.chemicals, b.store.overrides)
	if !entry.Applicable {
		return ScheduleView{}, &domain.ValidationError{Field: "plant", Reason: domain.NotApplicable}
	}

	opID := uuid.NewString()
	var rows []db.LedgerEntry
	var applications []db.ChemicalApplication
	for _, chemical := range b.store.chemicals {
		ml := entry.Doses[chemical.Name]
		if ml == 0 {
			continue
		}
		row := newEntry(opID, WaterAction(chemical.Name), now, plant, plant.Environment)
		row.Week = entry.Week
		row.Chemical = chemical.Name
		row.ChemicalML = ml * litres
		rows = append(rows, row)
		applications = append(applications, db.ChemicalApplication{
			PlantID:     plant.ID,
			OperationID: opID,
			Chemical:    chemical.Name,
			ML:          ml * litres,
			Litres:      litres,
			Week:        entry.Week,
			EventEpoch:  now.Unix(),
		})
	}
	if len(rows) == 0 {
		row := newEntry(opID, ActionWaterPlant, now, plant, plant.Environment)
		row.Week = entry.Week
		rows = append(rows, row)
	}

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(applications) > 0 {
			if err := tx.Create(&applications).Error; err != nil {
				return fmt.Errorf("save chemical applications: %w", err)
			}
		}
		return b.ledger.append(tx, rows)
	})
	if err != nil {
		return ScheduleView{}, b.persistenceFailure("record watering", err)
	}

	b.log.Info().Int64("plant_id", plant.ID).Int("week", entry.Week).Float64("litres", litres).Msg("watering recorded")
	return scheduleView(plant, entry), nil
}

// SetOverride stores a schedule override. Unlike other mutations the
// override is written first and only kept in memory once stored.
func (b *Backend) SetOverride(ctx context.Context, week int, chemical string, value float64) (override domain.Override, err error) {
	start := time.Now()
	defer func() { b.metrics.Observe("set_override", err, time.Since(start)) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	override, err = domain.NewOverride(week, chemical, value, b.store.chemicals)
	if err != nil {
		return domain.Override{}, err
	}

	now := b.clock.Now()
	row := db.ScheduleOverride{Week: override.Week, Chemical: override.Chemical, Value: override.Value, CreatedAt: now}
	entry := newEntry(uuid.NewString(), ActionSetOverride, now, nil, nil)
	entry.Week = override.Week
	entry.Chemical = override.Chemical
	entry.ChemicalML = override.Value

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("save override: %w", err)
		}
		return b.ledger.append(tx, []db.LedgerEntry{entry})
	})
	if err != nil {
		return domain.Override{}, b.persistenceFailure("set override", err)
	}

	override.Seq = int64(row.ID)
	b.store.overrides = append(b.store.overrides, override)
	b.log.Info().Int("week", override.Week).Str("chemical", override.Chemical).Float64("value", override.Value).Msg("override set")
	return override, nil
}

// Overrides 按写入顺序返回全部覆盖项
func (b *Backend) Overrides() []domain.Override {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]domain.Override(nil), b.store.overrides...)
}

// ScheduleForPlant returns the doses due for the plant's current week.
func (b *Backend) ScheduleForPlant(plantID int64) (ScheduleView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	plant, ok := b.store.plants[plantID]
	if !ok {
		return ScheduleView{}, domain.PlantNotFound(plantID)
	}
	entry := domain.ScheduleForAge(plant.ID, plant.AgeInWeeks(b.clock.Now()), b.store.chemicals, b.store.overrides)
	return scheduleView(plant, entry), nil
}

// ScheduleForWeek 返回指定周含覆盖项的剂量表
func (b *Backend) ScheduleForWeek(week int) (domain.Schedule, error) {
	if week < 0 || week > domain.MaxOverrideWeek {
		return nil, &domain.ValidationError{Field: "week", Reason: fmt.Sprintf("%d must be between 0 and %d", week, domain.MaxOverrideWeek)}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return domain.ScheduleWithOverrides(b.store.chemicals, week, b.store.overrides), nil
}

// ListPlants 按 ID 升序返回全部植株
func (b *Backend) ListPlants() []PlantView {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	views := make([]PlantView, 0, len(b.store.plants))
	for _, id := range b.store.sortedPlantIDs() {
		views = append(views, plantView(b.store.plants[id], now))
	}
	return views
}

// GetPlant 返回单个植株
func (b *Backend) GetPlant(plantID int64) (PlantView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	plant, ok := b.store.plants[plantID]
	if !ok {
		return PlantView{}, domain.PlantNotFound(plantID)
	}
	return plantView(plant, b.clock.Now()), nil
}

// ListEnvironments 按名称排序返回全部环境
func (b *Backend) ListEnvironments() []EnvironmentView {
	b.mu.Lock()
	defer b.mu.Unlock()

	views := make([]EnvironmentView, 0, len(b.store.environments))
	for _, name := range b.store.sortedEnvironmentNames() {
		views = append(views, environmentView(b.store.environments[name]))
	}
	return views
}

// GetEnvironment 按名称（可未规范化）返回环境
func (b *Backend) GetEnvironment(name string) (EnvironmentView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	env, ok := b.store.environment(name)
	if !ok {
		return EnvironmentView{}, domain.EnvironmentNotFound(name)
	}
	return environmentView(env), nil
}

// Chemicals 返回配方目录副本
func (b *Backend) Chemicals() []domain.Chemical {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]domain.Chemical(nil), b.store.chemicals...)
}

// LastUpdated 返回最近一次成功写入快照的时间
func (b *Backend) LastUpdated() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.store.lastUpdated
}

// persist writes the snapshot and entries in one transaction. Callers hold mu.
func (b *Backend) persist(ctx context.Context, op string, entries ...db.LedgerEntry) error {
	now := b.clock.Now()
	snapshot, err := encodeSnapshot(b.store, now)
	if err != nil {
		return b.persistenceFailure(op, err)
	}

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&snapshot).Error; err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return b.ledger.append(tx, entries)
	})
	if err != nil {
		return b.persistenceFailure(op, err)
	}
	b.store.lastUpdated = now
	return nil
}

// appendLedger writes failure rows that come without a state change.
func (b *Backend) appendLedger(ctx context.Context, op string, entries ...db.LedgerEntry) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return b.ledger.append(tx, entries)
	})
	if err != nil {
		return b.persistenceFailure(op, err)
	}
	return nil
}

func (b *Backend) persistenceFailure(op string, err error) error {
	b.log.Error().Err(err).Str("op", op).Msg("persistence failed, in-memory state kept")
	return &domain.PersistenceError{Op: op, Err: err}
}

func (b *Backend) observeOccupancy(env *domain.ContainerEnvironment) {
	b.metrics.SetOccupancy(env.Name, env.Occupied(), env.MaxSize())
}
