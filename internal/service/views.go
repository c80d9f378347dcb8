package service

import (
	"time"

	"github.com/vegcrib/internal/domain"
)

// PlantView 是对外输出的植株只读视图
type PlantView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Key           string  `json:"key"`
	HarvestType   string  `json:"harvest_type"`
	GrowType      string  `json:"grow_type"`
	THC           float64 `json:"thc"`
	CBD           float64 `json:"cbd"`
	BirthDate     string  `json:"birth_date"`
	HarvestDate   string  `json:"harvest_date"`
	BottleDate    string  `json:"bottle_date"`
	LowCureDate   string  `json:"low_cure_date"`
	MidCureDate   string  `json:"mid_cure_date"`
	HighCureDate  string  `json:"high_cure_date"`
	AgeInWeeks    int     `json:"age_in_weeks"`
	HarvestAmount float64 `json:"harvest_amount"`
	Container     string  `json:"container"`
	Environment   string  `json:"environment"`
	Slot          string  `json:"slot,omitempty"`
}

// EnvironmentView 是对外输出的环境只读视图
type EnvironmentView struct {
	Name      string            `json:"name"`
	Rows      int               `json:"rows"`
	Columns   int               `json:"columns"`
	MaxSize   int               `json:"max_size"`
	Occupied  int               `json:"occupied"`
	Empty     bool              `json:"empty"`
	Occupants []domain.Occupant `json:"occupants"`
}

// ScheduleView pairs a plant with the doses due for its current week.
type ScheduleView struct {
	PlantID    int64           `json:"plant_id"`
	PlantName  string          `json:"plant_name"`
	Week       int             `json:"week"`
	Applicable bool            `json:"applicable"`
	Status     string          `json:"status"`
	Doses      domain.Schedule `json:"doses,omitempty"`
}

func plantView(p *domain.Plant, now time.Time) PlantView {
	m := p.Milestones()
	view := PlantView{
		ID:            p.ID,
		Name:          p.Name,
		Key:           p.Key(),
		HarvestType:   p.HarvestType,
		GrowType:      p.GrowType,
		THC:           p.THC,
		CBD:           p.CBD,
		BirthDate:     p.BirthDate.Format(domain.DateLayout),
		HarvestDate:   m.Harvest.Format(domain.DateLayout),
		BottleDate:    m.Bottle.Format(domain.DateLayout),
		LowCureDate:   m.LowCure.Format(domain.DateLayout),
		MidCureDate:   m.MidCure.Format(domain.DateLayout),
		HighCureDate:  m.HighCure.Format(domain.DateLayout),
		AgeInWeeks:    p.AgeInWeeks(now),
		HarvestAmount: p.HarvestAmount,
		Container:     p.Container.Dimensions(),
		Environment:   p.EnvironmentName(),
	}
	if p.Environment != nil {
		if slot, ok := p.Environment.SlotOf(p.ID); ok {
			view.Slot = slot
		}
	}
	return view
}

func environmentView(env *domain.ContainerEnvironment) EnvironmentView {
	return EnvironmentView{
		Name:      env.Name,
		Rows:      env.Rows,
		Columns:   env.Columns,
		MaxSize:   env.MaxSize(),
		Occupied:  env.Occupied(),
		Empty:     env.IsEmpty(),
		Occupants: env.Occupants(),
	}
}

func scheduleView(p *domain.Plant, entry domain.ScheduleEntry) ScheduleView {
	return ScheduleView{
		PlantID:    p.ID,
		PlantName:  p.Name,
		Week:       entry.Week,
		Applicable: entry.Applicable,
		Status:     entry.Status(),
		Doses:      entry.Doses,
	}
}
