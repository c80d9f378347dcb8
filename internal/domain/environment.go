package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxGridSide 限制单个环境的行列数，网格按线性扫描分配
const MaxGridSide = 100

// Occupant 描述网格中的一个已占用槽位
type Occupant struct {
	Slot      string `json:"slot"`
	PlantID   int64  `json:"plant_id"`
	PlantName string `json:"plant_name"`
}

type slot struct {
	key   string
	plant *Plant
}

// ContainerEnvironment is a named rows×columns grid of slots. Each slot holds
// at most one plant reference and a plant is referenced by at most one slot.
// Slots are scanned in row-major order so placement is deterministic.
type ContainerEnvironment struct {
	Name    string
	Rows    int
	Columns int

	slots []slot
}

// NewContainerEnvironment 创建一个全空的环境网格
func NewContainerEnvironment(name string, rows, columns int) (*ContainerEnvironment, error) {
	return RestoreContainerEnvironment(NormalizeEnvironmentName(name), rows, columns)
}

// RestoreContainerEnvironment builds an empty grid under an already
// normalized name, as stored in a snapshot.
func RestoreContainerEnvironment(normalized string, rows, columns int) (*ContainerEnvironment, error) {
	if err := validateName("environment name", normalized); err != nil {
		return nil, err
	}
	if rows <= 0 || columns <= 0 {
		return nil, invalid("dimensions", "rows and columns must be positive, got %dx%d", rows, columns)
	}
	if rows > MaxGridSide || columns > MaxGridSide {
		return nil, invalid("dimensions", "rows and columns must not exceed %d, got %dx%d", MaxGridSide, rows, columns)
	}

	env := &ContainerEnvironment{
		Name:    normalized,
		Rows:    rows,
		Columns: columns,
		slots:   make([]slot, 0, rows*columns),
	}
	for row := 1; row <= rows; row++ {
		for column := 1; column <= columns; column++ {
			env.slots = append(env.slots, slot{key: SlotKey(row, column)})
		}
	}
	return env, nil
}

// NormalizeEnvironmentName capitalizes each word and joins them with "_", so
// "grow tent", "Grow  Tent" and "Grow_Tent" all become "Grow_Tent".
func NormalizeEnvironmentName(raw string) string {
	words := strings.FieldsFunc(sanitizeText(raw), func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	})
	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
	}
	return strings.Join(words, "_")
}

// SlotKey 返回 1 起始的 "RxC" 槽位地址
func SlotKey(row, column int) string {
	return fmt.Sprintf("%dx%d", row, column)
}

// MaxSize 返回槽位总数
func (e *ContainerEnvironment) MaxSize() int {
	return e.Rows * e.Columns
}

// Add places the plant in the first empty slot and returns the slot key.
// It reports false without touching any slot when the grid is full.
func (e *ContainerEnvironment) Add(p *Plant) (string, bool) {
	for i := range e.slots {
		if e.slots[i].plant == nil {
			e.slots[i].plant = p
			return e.slots[i].key, true
		}
	}
	return "", false
}

// Remove clears the slot whose occupant has the given id.
func (e *ContainerEnvironment) Remove(plantID int64) bool {
	for i := range e.slots {
		if e.slots[i].plant != nil && e.slots[i].plant.ID == plantID {
			e.slots[i].plant = nil
			return true
		}
	}
	return false
}

// Move relocates a present plant into an empty, valid slot.
func (e *ContainerEnvironment) Move(p *Plant, newSlot string) bool {
	target := e.indexOf(newSlot)
	if target < 0 || e.slots[target].plant != nil {
		return false
	}
	for i := range e.slots {
		if e.slots[i].plant != nil && e.slots[i].plant.ID == p.ID {
			e.slots[i].plant = nil
			e.slots[target].plant = p
			return true
		}
	}
	return false
}

// Place puts a plant into a specific empty slot. Used when restoring a
// snapshot and when rolling a failed move back to its original slot.
func (e *ContainerEnvironment) Place(slotKey string, p *Plant) error {
	idx := e.indexOf(slotKey)
	if idx < 0 {
		return invalid("slot", "%s is not a slot of %s", slotKey, e.Name)
	}
	if current := e.slots[idx].plant; current != nil {
		return &ConflictError{
			Environment: e.Name,
			Reason:      fmt.Sprintf("slot %s is occupied", slotKey),
			Occupants:   []Occupant{{Slot: slotKey, PlantID: current.ID, PlantName: current.Name}},
		}
	}
	if existing, ok := e.SlotOf(p.ID); ok {
		return invalid("slot", "plant %d already occupies %s", p.ID, existing)
	}
	e.slots[idx].plant = p
	return nil
}

// IsEmpty reports whether every slot is unoccupied.
func (e *ContainerEnvironment) IsEmpty() bool {
	for _, s := range e.slots {
		if s.plant != nil {
			return false
		}
	}
	return true
}

// Occupied 返回已占用槽位数量
func (e *ContainerEnvironment) Occupied() int {
	count := 0
	for _, s := range e.slots {
		if s.plant != nil {
			count++
		}
	}
	return count
}

// Free 返回剩余空位数量
func (e *ContainerEnvironment) Free() int {
	return e.MaxSize() - e.Occupied()
}

// SlotOf 返回植株所在槽位
func (e *ContainerEnvironment) SlotOf(plantID int64) (string, bool) {
	for _, s := range e.slots {
		if s.plant != nil && s.plant.ID == plantID {
			return s.key, true
		}
	}
	return "", false
}

// Slots 按扫描顺序返回全部槽位地址
func (e *ContainerEnvironment) Slots() []string {
	keys := make([]string, 0, len(e.slots))
	for _, s := range e.slots {
		keys = append(keys, s.key)
	}
	return keys
}

// Occupants 按扫描顺序返回占用者
func (e *ContainerEnvironment) Occupants() []Occupant {
	occupants := make([]Occupant, 0)
	for _, s := range e.slots {
		if s.plant != nil {
			occupants = append(occupants, Occupant{Slot: s.key, PlantID: s.plant.ID, PlantName: s.plant.Name})
		}
	}
	return occupants
}

// Occupancy maps each occupied slot to its plant id. This is the form stored
// in snapshots and ledger rows.
func (e *ContainerEnvironment) Occupancy() map[string]int64 {
	grid := make(map[string]int64)
	for _, s := range e.slots {
		if s.plant != nil {
			grid[s.key] = s.plant.ID
		}
	}
	return grid
}

func (e *ContainerEnvironment) indexOf(key string) int {
	for i := range e.slots {
		if e.slots[i].key == key {
			return i
		}
	}
	return -1
}
