package domain

import (
	"math"
	"strings"
)

// NotApplicable is shown in place of a dosage table for plants in week 0.
const NotApplicable = "not yet applicable"

// MaxOverrideWeek 限制覆盖项的周数上限
const MaxOverrideWeek = 104

// Schedule 是 配方名 -> 毫升 的剂量映射
type Schedule map[string]float64

// Override supersedes the base dose of one chemical from Week onward, until
// a later override for the same chemical takes over. Seq records insertion
// order and breaks ties between overrides for the same week.
type Override struct {
	Week     int
	Chemical string
	Value    float64
	Seq      int64
}

// ScheduleEntry 是某株植株在当前周的剂量，Applicable=false 时 Doses 为空
type ScheduleEntry struct {
	PlantID    int64
	Week       int
	Applicable bool
	Doses      Schedule
}

// Status 返回用于展示的状态
func (e ScheduleEntry) Status() string {
	if !e.Applicable {
		return NotApplicable
	}
	return "active"
}

// NewOverride 校验并构造覆盖项
func NewOverride(week int, chemical string, value float64, chemicals []Chemical) (Override, error) {
	name := strings.ToLower(strings.TrimSpace(chemical))
	if week < 1 || week > MaxOverrideWeek {
		return Override{}, invalid("week", "%d must be between 1 and %d", week, MaxOverrideWeek)
	}
	if _, ok := FindChemical(chemicals, name); !ok {
		return Override{}, invalid("chemical", "%q is not a known chemical", chemical)
	}
	if math.IsNaN(value) || value < 0 {
		return Override{}, invalid("value", "%v must be a non-negative dose", value)
	}
	return Override{Week: week, Chemical: name, Value: value}, nil
}

// ScheduleForWeek returns the base dose of every chemical for week. Weeks
// outside 0..MaxScheduleWeek yield 0 for every chemical.
func ScheduleForWeek(chemicals []Chemical, week int) Schedule {
	schedule := make(Schedule, len(chemicals))
	for _, chemical := range chemicals {
		schedule[chemical.Name] = chemical.Dose(week)
	}
	return schedule
}

// ScheduleWithOverrides starts from the base table and, per chemical,
// applies the override with the highest week not exceeding week. Overrides
// for chemicals missing from chemicals are ignored.
func ScheduleWithOverrides(chemicals []Chemical, week int, overrides []Override) Schedule {
	schedule := ScheduleForWeek(chemicals, week)

	winners := make(map[string]Override)
	for _, override := range overrides {
		if override.Week > week {
			continue
		}
		if _, known := schedule[override.Chemical]; !known {
			continue
		}
		current, seen := winners[override.Chemical]
		if !seen || override.Week > current.Week || (override.Week == current.Week && override.Seq > current.Seq) {
			winners[override.Chemical] = override
		}
	}

	for name, override := range winners {
		schedule[name] = override.Value
	}
	return schedule
}

// ScheduleForAge builds the entry for a plant of the given age. Plants in
// week 0 (or not yet born) get a non-applicable entry.
func ScheduleForAge(plantID int64, week int, chemicals []Chemical, overrides []Override) ScheduleEntry {
	if week <= 0 {
		return ScheduleEntry{PlantID: plantID, Week: week}
	}
	return ScheduleEntry{
		PlantID:    plantID,
		Week:       week,
		Applicable: true,
		Doses:      ScheduleWithOverrides(chemicals, week, overrides),
	}
}
