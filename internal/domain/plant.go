package domain

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// DateLayout 是出生日期等日期字段的输入输出格式
const DateLayout = "2006-01-02"

const (
	maxBirthAgeYears   = 10
	maxBirthFutureDays = 7
	maxNameRunes       = 250
)

var (
	// HarvestTypes 列出允许的品种分类
	HarvestTypes = []string{"indica", "sativa", "hybrid", "hybrid:indica", "hybrid:sativa"}
	// GrowTypes 列出允许的栽培方式
	GrowTypes = []string{"standard", "auto"}
)

var (
	namePattern = regexp.MustCompile(`^[\p{L}\p{N}_\s-]+$`)
	stripMarkup = bluemonday.StrictPolicy()
)

// 各节点相对出生日期的天数
const (
	harvestOffsetDays  = 17 * 7
	lowCureOffsetDays  = 20 * 7
	midCureOffsetDays  = 23*7 + 3
	highCureOffsetDays = 27 * 7
)

// PlantSpec 是创建植株时调用方提供的字段
type PlantSpec struct {
	Name                string
	HarvestType         string
	GrowType            string
	THC                 float64
	CBD                 float64
	BirthDate           time.Time
	Environment         string
	ContainerDimensions string
}

// Milestones 是由出生日期推导出的固定日历节点
type Milestones struct {
	Harvest  time.Time
	Bottle   time.Time
	LowCure  time.Time
	MidCure  time.Time
	HighCure time.Time
}

// Plant is a cultivation subject. It owns its Container and references (but
// does not own) the Environment it currently sits in.
type Plant struct {
	ID            int64
	Name          string
	HarvestType   string
	GrowType      string
	THC           float64
	CBD           float64
	BirthDate     time.Time
	HarvestAmount float64
	Container     PlantContainer
	Environment   *ContainerEnvironment

	milestones Milestones
}

// NewPlant validates spec against now and builds a Plant bound to env.
// env must have at least one free slot; the caller performs the actual
// placement.
func NewPlant(id int64, spec PlantSpec, env *ContainerEnvironment, now time.Time) (*Plant, error) {
	name := strings.TrimSpace(sanitizeText(spec.Name))
	if err := validateName("name", name); err != nil {
		return nil, err
	}

	harvestType, err := oneOf("harvest_type", spec.HarvestType, HarvestTypes)
	if err != nil {
		return nil, err
	}
	growType, err := oneOf("grow_type", spec.GrowType, GrowTypes)
	if err != nil {
		return nil, err
	}

	if err := validatePercentage("thc", spec.THC); err != nil {
		return nil, err
	}
	if err := validatePercentage("cbd", spec.CBD); err != nil {
		return nil, err
	}

	birth, err := validateBirthDate(spec.BirthDate, now)
	if err != nil {
		return nil, err
	}

	dimensions := strings.TrimSpace(spec.ContainerDimensions)
	if dimensions == "" {
		dimensions = DefaultContainerDimensions
	}
	rows, depth, err := ParseDimensions(dimensions)
	if err != nil {
		return nil, err
	}

	if env == nil {
		return nil, EnvironmentNotFound(spec.Environment)
	}
	if env.Free() == 0 {
		return nil, &CapacityError{Environment: env.Name, MaxSize: env.MaxSize()}
	}

	return &Plant{
		ID:          id,
		Name:        name,
		HarvestType: harvestType,
		GrowType:    growType,
		THC:         spec.THC,
		CBD:         spec.CBD,
		BirthDate:   birth,
		Container:   PlantContainer{ID: id, Rows: rows, Depth: depth},
		Environment: env,
		milestones:  ComputeMilestones(birth),
	}, nil
}

// RestorePlant rebuilds a plant from persisted fields without the
// birth-date window check, which only applies at creation time.
func RestorePlant(id int64, name, harvestType, growType string, thc, cbd float64, birth time.Time, harvestAmount float64, rows, depth int) *Plant {
	birth = civilDate(birth)
	return &Plant{
		ID:            id,
		Name:          name,
		HarvestType:   harvestType,
		GrowType:      growType,
		THC:           thc,
		CBD:           cbd,
		BirthDate:     birth,
		HarvestAmount: harvestAmount,
		Container:     PlantContainer{ID: id, Rows: rows, Depth: depth},
		milestones:    ComputeMilestones(birth),
	}
}

// ComputeMilestones derives the calendar milestones from a birth date.
func ComputeMilestones(birth time.Time) Milestones {
	birth = civilDate(birth)
	harvest := birth.AddDate(0, 0, harvestOffsetDays)
	return Milestones{
		Harvest:  harvest,
		Bottle:   harvest,
		LowCure:  birth.AddDate(0, 0, lowCureOffsetDays),
		MidCure:  birth.AddDate(0, 0, midCureOffsetDays),
		HighCure: birth.AddDate(0, 0, highCureOffsetDays),
	}
}

// Milestones 返回派生日期
func (p *Plant) Milestones() Milestones {
	return p.milestones
}

// AgeInWeeks returns ceil(days since birth / 7). It is recomputed on every
// call.
func (p *Plant) AgeInWeeks(now time.Time) int {
	days := daysBetween(p.BirthDate, now)
	return int(math.Ceil(float64(days) / 7))
}

// Key 返回台账使用的 "名称_出生日期" 复合键
func (p *Plant) Key() string {
	return fmt.Sprintf("%s_%s", p.Name, p.BirthDate.Format(DateLayout))
}

// EnvironmentName 返回当前环境名，迁移途中为空
func (p *Plant) EnvironmentName() string {
	if p.Environment == nil {
		return ""
	}
	return p.Environment.Name
}

// ParseDate 解析 YYYY-MM-DD 日期
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, invalid("birth_date", "%q is not a YYYY-MM-DD date", raw)
	}
	return t, nil
}

func validateBirthDate(birth, now time.Time) (time.Time, error) {
	if birth.IsZero() {
		return time.Time{}, invalid("birth_date", "is required")
	}
	birth = civilDate(birth)
	today := civilDate(now)
	if birth.Before(today.AddDate(-maxBirthAgeYears, 0, 0)) {
		return time.Time{}, invalid("birth_date", "%s is more than %d years in the past", birth.Format(DateLayout), maxBirthAgeYears)
	}
	if birth.After(today.AddDate(0, 0, maxBirthFutureDays)) {
		return time.Time{}, invalid("birth_date", "%s is more than %d days in the future", birth.Format(DateLayout), maxBirthFutureDays)
	}
	return birth, nil
}

func validatePercentage(field string, value float64) error {
	if math.IsNaN(value) || value < 0 || value > 100 {
		return invalid(field, "%v must be between 0 and 100", value)
	}
	return nil
}

func validateName(field, name string) error {
	if name == "" {
		return invalid(field, "must not be blank")
	}
	if len([]rune(name)) > maxNameRunes {
		return invalid(field, "must be at most %d characters", maxNameRunes)
	}
	if !namePattern.MatchString(name) {
		return invalid(field, "%q may only contain letters, digits, spaces, '_' and '-'", name)
	}
	return nil
}

func oneOf(field, raw string, allowed []string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if !slices.Contains(allowed, value) {
		return "", invalid(field, "%q must be one of %s", raw, strings.Join(allowed, ", "))
	}
	return value, nil
}

// sanitizeText 去除 HTML 标记，名称会被渲染到页面与台账中；
// StrictPolicy 会转义 & 与 '，这里还原为原始字符再交给校验
func sanitizeText(raw string) string {
	return html.UnescapeString(stripMarkup.Sanitize(raw))
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(civilDate(to).Sub(civilDate(from)).Hours() / 24)
}
