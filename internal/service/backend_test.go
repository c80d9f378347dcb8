package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/vegcrib/internal/db"
	"github.com/vegcrib/internal/domain"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:backend-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })
	return gdb
}

func newTestBackend(t *testing.T) (*Backend, *gorm.DB) {
	t.Helper()
	gdb := openTestDB(t)
	backend := NewBackend(gdb, Options{Clock: domain.NewFixedClock(testNow)})
	if err := backend.Load(context.Background()); err != nil {
		t.Fatalf("load backend: %v", err)
	}
	return backend, gdb
}

func plantSpec(name, env string) domain.PlantSpec {
	return domain.PlantSpec{
		Name:        name,
		HarvestType: "hybrid",
		GrowType:    "standard",
		THC:         22,
		CBD:         1,
		BirthDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Environment: env,
	}
}

func mustCreateEnvironment(t *testing.T, b *Backend, name string, rows, columns int) EnvironmentView {
	t.Helper()
	view, err := b.CreateEnvironment(context.Background(), name, rows, columns)
	if err != nil {
		t.Fatalf("create environment %s: %v", name, err)
	}
	return view
}

func mustCreatePlant(t *testing.T, b *Backend, name, env string) PlantView {
	t.Helper()
	view, err := b.CreatePlant(context.Background(), plantSpec(name, env))
	if err != nil {
		t.Fatalf("create plant %s: %v", name, err)
	}
	return view
}

func ledgerActions(t *testing.T, b *Backend, filter LedgerFilter) []string {
	t.Helper()
	entries, err := b.Ledger().List(context.Background(), filter)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	actions := make([]string, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

func assertActions(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected actions %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected actions %v, got %v", want, got)
		}
	}
}

func TestCreatePlantAssignsFirstFreeSlot(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "grow tent", 2, 2)

	first := mustCreatePlant(t, b, "Blue Dream", "grow tent")
	second := mustCreatePlant(t, b, "Gelato", "Grow_Tent")

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if first.Slot != "1x1" || second.Slot != "1x2" {
		t.Fatalf("expected slots 1x1 and 1x2, got %s and %s", first.Slot, second.Slot)
	}
	if first.Environment != "Grow_Tent" {
		t.Fatalf("expected environment Grow_Tent, got %s", first.Environment)
	}
	if first.HarvestDate != "2024-04-29" || first.AgeInWeeks != 9 {
		t.Fatalf("unexpected derived fields: harvest=%s age=%d", first.HarvestDate, first.AgeInWeeks)
	}
	if first.Container != domain.DefaultContainerDimensions {
		t.Fatalf("expected default container, got %s", first.Container)
	}

	env, err := b.GetEnvironment("grow tent")
	if err != nil {
		t.Fatalf("get environment: %v", err)
	}
	if env.Occupied != 2 {
		t.Fatalf("expected 2 occupied slots, got %d", env.Occupied)
	}

	assertActions(t, ledgerActions(t, b, LedgerFilter{}), ActionCreateEnvironment, ActionCreatePlant, ActionCreatePlant)
}

func TestCreatePlantErrors(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "closet", 1, 1)
	mustCreatePlant(t, b, "Only One", "closet")

	tests := []struct {
		name string
		spec domain.PlantSpec
		want error
	}{
		{name: "unknown environment", spec: plantSpec("Ghost", "attic"), want: domain.ErrNotFound},
		{name: "blank name", spec: plantSpec("  ", "closet"), want: domain.ErrValidation},
		{name: "full environment", spec: plantSpec("Overflow", "closet"), want: domain.ErrCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.CreatePlant(context.Background(), tt.spec)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if got := len(b.ListPlants()); got != 1 {
		t.Fatalf("expected failed creates to leave 1 plant, got %d", got)
	}
	assertActions(t, ledgerActions(t, b, LedgerFilter{}),
		ActionCreateEnvironment, ActionCreatePlant, ActionCreatePlantFailed)

	// 失败的创建不消耗 ID
	mustCreateEnvironment(t, b, "tent", 1, 1)
	if view := mustCreatePlant(t, b, "Next", "tent"); view.ID != 2 {
		t.Fatalf("expected id 2, got %d", view.ID)
	}
}

func TestMovePlantSucceeds(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "veg", 1, 2)
	mustCreateEnvironment(t, b, "flower", 2, 2)
	plant := mustCreatePlant(t, b, "Mover", "veg")

	moved, err := b.MovePlant(context.Background(), plant.ID, "flower")
	if err != nil {
		t.Fatalf("move plant: %v", err)
	}
	if moved.Environment != "Flower" || moved.Slot != "1x1" {
		t.Fatalf("expected Flower/1x1, got %s/%s", moved.Environment, moved.Slot)
	}

	veg, _ := b.GetEnvironment("veg")
	if !veg.Empty {
		t.Fatalf("expected source environment to be empty after move")
	}

	entries, err := b.Ledger().List(context.Background(), LedgerFilter{PlantID: plant.ID, Action: "MOVE"})
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(entries) != 2 || entries[0].Action != ActionMoveRemove || entries[1].Action != ActionMoveAdd {
		t.Fatalf("unexpected move rows: %+v", entries)
	}
	if entries[0].OperationID != entries[1].OperationID {
		t.Fatalf("expected both move rows to share an operation id")
	}
	if entries[0].EnvironmentName != "Veg" || entries[1].EnvironmentName != "Flower" {
		t.Fatalf("unexpected environments on move rows: %s, %s", entries[0].EnvironmentName, entries[1].EnvironmentName)
	}
}

func TestMovePlantRollsBackToOriginalSlot(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "veg", 1, 3)
	mustCreateEnvironment(t, b, "flower", 1, 1)
	first := mustCreatePlant(t, b, "First", "veg")
	second := mustCreatePlant(t, b, "Second", "veg")
	mustCreatePlant(t, b, "Blocker", "flower")

	if _, err := b.DeletePlant(context.Background(), first.ID, 0); err != nil {
		t.Fatalf("delete plant: %v", err)
	}

	_, err := b.MovePlant(context.Background(), second.ID, "flower")
	var capacity *domain.CapacityError
	if !errors.As(err, &capacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if capacity.Environment != "Flower" {
		t.Fatalf("expected capacity error for Flower, got %s", capacity.Environment)
	}

	view, err := b.GetPlant(second.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if view.Environment != "Veg" || view.Slot != "1x2" {
		t.Fatalf("expected plant back in Veg/1x2, got %s/%s", view.Environment, view.Slot)
	}

	assertActions(t, ledgerActions(t, b, LedgerFilter{PlantID: second.ID}),
		ActionCreatePlant, ActionMoveRemove, ActionMoveRollback)
}

func TestMovePlantValidation(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "veg", 1, 1)
	plant := mustCreatePlant(t, b, "Stay", "veg")

	tests := []struct {
		name string
		id   int64
		dest string
		want error
	}{
		{name: "unknown plant", id: 99, dest: "veg", want: domain.ErrNotFound},
		{name: "unknown environment", id: plant.ID, dest: "attic", want: domain.ErrNotFound},
		{name: "same environment", id: plant.ID, dest: "veg", want: domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.MovePlant(context.Background(), tt.id, tt.dest); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMovePlantMissingFromSourceGridIsNotFound(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "veg", 1, 1)
	mustCreateEnvironment(t, b, "flower", 1, 1)
	plant := mustCreatePlant(t, b, "Ghost", "veg")

	// 植株引用了环境，但网格中已没有它
	b.mu.Lock()
	source := b.store.plants[plant.ID].Environment
	source.Remove(plant.ID)
	b.mu.Unlock()

	if _, err := b.MovePlant(context.Background(), plant.ID, "flower"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}

	b.mu.Lock()
	env := b.store.plants[plant.ID].Environment
	b.mu.Unlock()
	if env != source {
		t.Fatalf("expected plant environment to be unchanged")
	}
	if flower, _ := b.GetEnvironment("flower"); !flower.Empty {
		t.Fatalf("expected destination to stay empty")
	}
	assertActions(t, ledgerActions(t, b, LedgerFilter{PlantID: plant.ID}), ActionCreatePlant)
}

func TestRelocatePlant(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "tent", 2, 2)
	first := mustCreatePlant(t, b, "First", "tent")
	mustCreatePlant(t, b, "Second", "tent")

	view, err := b.RelocatePlant(context.Background(), first.ID, "2x2")
	if err != nil {
		t.Fatalf("relocate plant: %v", err)
	}
	if view.Slot != "2x2" {
		t.Fatalf("expected slot 2x2, got %s", view.Slot)
	}

	if _, err := b.RelocatePlant(context.Background(), first.ID, "1x2"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for occupied slot, got %v", err)
	}
	if _, err := b.RelocatePlant(context.Background(), first.ID, "9x9"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown slot, got %v", err)
	}
}

func TestDeletePlantRecordsHarvest(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "tent", 1, 2)
	plant := mustCreatePlant(t, b, "Harvest Me", "tent")

	if _, err := b.DeletePlant(context.Background(), plant.ID, -1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for negative harvest, got %v", err)
	}

	view, err := b.DeletePlant(context.Background(), plant.ID, 112.5)
	if err != nil {
		t.Fatalf("delete plant: %v", err)
	}
	if view.HarvestAmount != 112.5 {
		t.Fatalf("expected harvest amount 112.5, got %v", view.HarvestAmount)
	}
	if _, err := b.GetPlant(plant.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected harvested plant to be gone, got %v", err)
	}
	if env, _ := b.GetEnvironment("tent"); !env.Empty {
		t.Fatalf("expected tent to be empty after harvest")
	}

	entries, err := b.Ledger().List(context.Background(), LedgerFilter{PlantID: plant.ID})
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(entries))
	}
	harvest, removal := entries[1], entries[2]
	if harvest.Action != ActionHarvestPlant || removal.Action != ActionDeletePlant {
		t.Fatalf("unexpected actions %s, %s", harvest.Action, removal.Action)
	}
	if harvest.PlantKey != "DELETE_Harvest Me_2024-01-01" {
		t.Fatalf("unexpected harvest key %s", harvest.PlantKey)
	}
	if OriginalPlantKey(harvest.PlantKey) != removal.PlantKey {
		t.Fatalf("expected keys to match after stripping prefix: %s vs %s", harvest.PlantKey, removal.PlantKey)
	}
	if harvest.HarvestAmount != 112.5 || harvest.GridOccupancy == removal.GridOccupancy {
		t.Fatalf("expected harvest row to carry amount and pre-removal grid, got %+v", harvest)
	}
	if removal.GridOccupancy != "{}" {
		t.Fatalf("expected empty grid on delete row, got %s", removal.GridOccupancy)
	}
}

func TestDeleteEnvironment(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "tent", 1, 1)
	plant := mustCreatePlant(t, b, "Blocker", "tent")

	err := b.DeleteEnvironment(context.Background(), "tent")
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(conflict.Occupants) != 1 || conflict.Occupants[0].PlantID != plant.ID {
		t.Fatalf("expected occupant %d, got %+v", plant.ID, conflict.Occupants)
	}

	if _, err := b.DeletePlant(context.Background(), plant.ID, 0); err != nil {
		t.Fatalf("delete plant: %v", err)
	}
	if err := b.DeleteEnvironment(context.Background(), "tent"); err != nil {
		t.Fatalf("delete environment: %v", err)
	}
	if err := b.DeleteEnvironment(context.Background(), "tent"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if len(b.ListEnvironments()) != 0 {
		t.Fatalf("expected no environments left")
	}

	assertActions(t, ledgerActions(t, b, LedgerFilter{Environment: "tent", Action: "DELETE ENVIRONMENT"}),
		ActionDeleteEnvironmentFailed, ActionDeleteEnvironment)
}

func TestCreateEnvironmentRejectsDuplicate(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "grow tent", 1, 1)

	if _, err := b.CreateEnvironment(context.Background(), "Grow  Tent", 2, 2); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for duplicate name, got %v", err)
	}
}

func TestSetOverrideAffectsSchedule(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "tent", 1, 1)
	plant := mustCreatePlant(t, b, "Fed", "tent")

	if _, err := b.SetOverride(context.Background(), 0, "bloom", 1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for week 0, got %v", err)
	}
	if _, err := b.SetOverride(context.Background(), 3, "unobtainium", 1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown chemical, got %v", err)
	}

	override, err := b.SetOverride(context.Background(), 5, "Bloom", 7.5)
	if err != nil {
		t.Fatalf("set override: %v", err)
	}
	if override.Chemical != "bloom" || override.Seq == 0 {
		t.Fatalf("unexpected override %+v", override)
	}

	schedule, err := b.ScheduleForPlant(plant.ID)
	if err != nil {
		t.Fatalf("schedule for plant: %v", err)
	}
	if schedule.Week != 9 || !schedule.Applicable {
		t.Fatalf("expected applicable week 9, got %+v", schedule)
	}
	if schedule.Doses["bloom"] != 7.5 {
		t.Fatalf("expected overridden bloom 7.5, got %v", schedule.Doses["bloom"])
	}

	week4, err := b.ScheduleForWeek(4)
	if err != nil {
		t.Fatalf("schedule for week: %v", err)
	}
	if week4["bloom"] != domain.ScheduleForWeek(domain.BaseChemicals(), 4)["bloom"] {
		t.Fatalf("expected base bloom before the override week, got %v", week4["bloom"])
	}
	if len(b.Overrides()) != 1 {
		t.Fatalf("expected 1 override, got %d", len(b.Overrides()))
	}
}

func TestScheduleForNewbornPlantIsNotApplicable(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "tent", 1, 1)

	spec := plantSpec("Seedling", "tent")
	spec.BirthDate = testNow
	plant, err := b.CreatePlant(context.Background(), spec)
	if err != nil {
		t.Fatalf("create plant: %v", err)
	}

	schedule, err := b.ScheduleForPlant(plant.ID)
	if err != nil {
		t.Fatalf("schedule for plant: %v", err)
	}
	if schedule.Applicable || schedule.Status != domain.NotApplicable {
		t.Fatalf("expected not applicable schedule, got %+v", schedule)
	}
	if _, err := b.RecordWatering(context.Background(), plant.ID, 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected watering a week 0 plant to be rejected, got %v", err)
	}
}

func TestRecordWatering(t *testing.T) {
	b, gdb := newTestBackend(t)
	mustCreateEnvironment(t, b, "tent", 1, 1)
	plant := mustCreatePlant(t, b, "Thirsty", "tent")

	view, err := b.RecordWatering(context.Background(), plant.ID, 0)
	if err != nil {
		t.Fatalf("record watering: %v", err)
	}

	expected := 0
	for _, dose := range view.Doses {
		if dose != 0 {
			expected++
		}
	}

	var applications []db.ChemicalApplication
	if err := gdb.Where("plant_id = ?", plant.ID).Find(&applications).Error; err != nil {
		t.Fatalf("load applications: %v", err)
	}
	if len(applications) != expected {
		t.Fatalf("expected %d applications, got %d", expected, len(applications))
	}
	for _, app := range applications {
		if app.Litres != DefaultWaterLitres || app.ML != view.Doses[app.Chemical]*DefaultWaterLitres {
			t.Fatalf("unexpected application %+v", app)
		}
	}

	rows, err := b.Ledger().List(context.Background(), LedgerFilter{PlantID: plant.ID, Action: ActionWaterPlant})
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if expected > 0 && len(rows) != expected {
		t.Fatalf("expected %d watering rows, got %d", expected, len(rows))
	}
	if expected == 0 && (len(rows) != 1 || rows[0].Action != ActionWaterPlant) {
		t.Fatalf("expected a single WATER PLANT row, got %+v", rows)
	}
}

func TestLoadRestoresStateAndIDCounter(t *testing.T) {
	b, gdb := newTestBackend(t)
	mustCreateEnvironment(t, b, "tent", 2, 2)
	mustCreatePlant(t, b, "Keeper", "tent")
	last := mustCreatePlant(t, b, "Harvested", "tent")
	if _, err := b.RelocatePlant(context.Background(), 1, "2x1"); err != nil {
		t.Fatalf("relocate plant: %v", err)
	}
	if _, err := b.DeletePlant(context.Background(), last.ID, 10); err != nil {
		t.Fatalf("delete plant: %v", err)
	}
	if _, err := b.SetOverride(context.Background(), 2, "signal", 3); err != nil {
		t.Fatalf("set override: %v", err)
	}

	reloaded := NewBackend(gdb, Options{Clock: domain.NewFixedClock(testNow)})
	if err := reloaded.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	plants := reloaded.ListPlants()
	if len(plants) != 1 || plants[0].Name != "Keeper" || plants[0].Slot != "2x1" {
		t.Fatalf("unexpected plants after reload: %+v", plants)
	}
	if len(reloaded.Overrides()) != 1 {
		t.Fatalf("expected override to survive reload")
	}
	if reloaded.LastUpdated().IsZero() {
		t.Fatalf("expected last updated to be restored")
	}

	next := mustCreatePlant(t, reloaded, "Fresh", "tent")
	if next.ID != last.ID+1 {
		t.Fatalf("expected id %d after reload, got %d", last.ID+1, next.ID)
	}
}

func TestLoadRestoresMultiWordEnvironments(t *testing.T) {
	b, gdb := newTestBackend(t)
	mustCreateEnvironment(t, b, "grow tent", 1, 2)
	mustCreateEnvironment(t, b, "flower room", 2, 2)
	plant := mustCreatePlant(t, b, "Tenant", "grow tent")

	reloaded := NewBackend(gdb, Options{Clock: domain.NewFixedClock(testNow)})
	if err := reloaded.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	envs := reloaded.ListEnvironments()
	if len(envs) != 2 || envs[0].Name != "Flower_Room" || envs[1].Name != "Grow_Tent" {
		t.Fatalf("unexpected environments after reload: %+v", envs)
	}
	view, err := reloaded.GetPlant(plant.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if view.Environment != "Grow_Tent" || view.Slot != "1x1" {
		t.Fatalf("expected plant in Grow_Tent/1x1, got %s/%s", view.Environment, view.Slot)
	}
	if _, err := reloaded.GetEnvironment("Grow_Tent"); err != nil {
		t.Fatalf("expected lookup by normalized name to succeed: %v", err)
	}
}

func TestLedgerListFiltersByNormalizedEnvironment(t *testing.T) {
	b, _ := newTestBackend(t)
	mustCreateEnvironment(t, b, "grow tent", 1, 2)
	mustCreatePlant(t, b, "Tenant", "grow tent")

	for _, name := range []string{"Grow_Tent", "grow tent"} {
		assertActions(t, ledgerActions(t, b, LedgerFilter{Environment: name}),
			ActionCreateEnvironment, ActionCreatePlant)
	}
}

func TestLoadRepairsInterruptedMove(t *testing.T) {
	b, gdb := newTestBackend(t)
	mustCreateEnvironment(t, b, "veg", 1, 2)
	mustCreateEnvironment(t, b, "flower", 1, 1)
	plant := mustCreatePlant(t, b, "Stranded", "veg")

	// 模拟在 MOVE (REMOVE) 之后进程中断
	b.mu.Lock()
	stranded := b.store.plants[plant.ID]
	source := stranded.Environment
	source.Remove(stranded.ID)
	stranded.Environment = nil
	err := b.persist(context.Background(), "move plant", newEntry("op-1", ActionMoveRemove, testNow, stranded, source))
	b.mu.Unlock()
	if err != nil {
		t.Fatalf("persist interrupted move: %v", err)
	}

	reloaded := NewBackend(gdb, Options{Clock: domain.NewFixedClock(testNow)})
	if err := reloaded.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	view, err := reloaded.GetPlant(plant.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if view.Environment != "Veg" {
		t.Fatalf("expected plant restored to Veg, got %q", view.Environment)
	}

	actions := ledgerActions(t, reloaded, LedgerFilter{PlantID: plant.ID})
	if actions[len(actions)-1] != ActionMoveRollback {
		t.Fatalf("expected repair to log a rollback row, got %v", actions)
	}
}

func TestLedgerVerifyDetectsTampering(t *testing.T) {
	b, gdb := newTestBackend(t)
	mustCreateEnvironment(t, b, "tent", 1, 2)
	plant := mustCreatePlant(t, b, "Audited", "tent")
	if _, err := b.DeletePlant(context.Background(), plant.ID, 3); err != nil {
		t.Fatalf("delete plant: %v", err)
	}

	result, err := b.Ledger().Verify(context.Background())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Valid || result.Rows != 4 {
		t.Fatalf("expected 4 valid rows, got %+v", result)
	}

	// 原生 SQL 绕过模型钩子
	if err := gdb.Exec("UPDATE ledger_entries SET harvest_amount = ? WHERE action = ?", 300, ActionHarvestPlant).Error; err != nil {
		t.Fatalf("tamper: %v", err)
	}

	result, err = b.Ledger().Verify(context.Background())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Valid || result.BrokenAt != 3 {
		t.Fatalf("expected chain to break at row 3, got %+v", result)
	}
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	b, gdb := newTestBackend(t)
	if err := gdb.Migrator().DropTable(&db.Snapshot{}); err != nil {
		t.Fatalf("drop snapshot table: %v", err)
	}

	view, err := b.CreateEnvironment(context.Background(), "tent", 1, 1)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) || perr.Op != "create environment" {
		t.Fatalf("expected persistence error for create environment, got %v", err)
	}
	if view.Name != "Tent" {
		t.Fatalf("expected view to be returned with the error, got %+v", view)
	}
	if len(b.ListEnvironments()) != 1 {
		t.Fatalf("expected in-memory environment to be kept")
	}
}
