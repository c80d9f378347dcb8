package domain

import "slices"

// MaxScheduleWeek 是基础剂量表覆盖的最后一周
const MaxScheduleWeek = 16

// Chemical is an immutable nutrient formula with a per-week dose table in
// millilitres for weeks 0..MaxScheduleWeek.
type Chemical struct {
	Name        string
	Description string
	WeekML      [MaxScheduleWeek + 1]float64
}

// Dose 返回指定周的基础剂量，超出表格范围返回 0
func (c Chemical) Dose(week int) float64 {
	if week < 0 || week > MaxScheduleWeek {
		return 0
	}
	return c.WeekML[week]
}

var baseChemicals = []Chemical{
	{
		Name: "canopy_boost",
		Description: "- Increases plant metabolism and photosynthesis\n- Improves root growth and water uptake\n" +
			"- Enhances plant responses to transition shock\n- Boosts plant's resistance to stressors",
		WeekML: [MaxScheduleWeek + 1]float64{0, 5, 5, 10, 15, 15, 20, 20, 20, 20, 20, 0, 0, 0, 0, 0, 0},
	},
	{
		Name: "root_boost",
		Description: "- Improves root growth and increases root mass\n- Enhances water and nutrient uptake\n" +
			"- Actively stabilizes soil chemistry and buffers pH\n- Stimulates beneficial bacterial and fungal growth",
		WeekML: [MaxScheduleWeek + 1]float64{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
	},
	{
		Name: "n_primer",
		Description: "- Stimulates lush green canopy growth\n- Reduces nitrogen burns and soil leaching\n" +
			"- Improves microbial and fungal diversity\n- Enhances plant vigor and strength",
		WeekML: [MaxScheduleWeek + 1]float64{0, 1, 1, 2, 2, 2, 2, 2, 2, 2, 2, 0, 0, 0, 0, 0, 0},
	},
	{
		Name: "organic_calmag_oac",
		Description: "- Thickens stems, leaves, and root systems\n- Promotes strong, vigorous vegetative growth\n" +
			"- Increases trichome development in flowers\n- Amplifies soil health and sustains plant health",
		WeekML: [MaxScheduleWeek + 1]float64{0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	},
	{
		Name: "bloom",
		Description: "- Maximizes flower growth and total yield\n- Reduces transition stress and shock\n" +
			"- Improves root activity and increases water uptake\n- Enhances early flower growth and terpene production",
		WeekML: [MaxScheduleWeek + 1]float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 2, 2, 2, 1, 1, 0},
	},
	{
		Name: "signal",
		Description: "- Increases flower density and hardness\n- Enhances terpene synthesis\n" +
			"- Actively flushes salts away from root hairs",
		WeekML: [MaxScheduleWeek + 1]float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2},
	},
	{
		Name: "base_ab",
		Description: "- Ideal during vegetative and flowering period\n- Excellent compatibility with all grow mediums\n" +
			"- Prevents salt buildup in irrigation systems\n- Contains the full spectrum of macro and micro nutrients",
		WeekML: [MaxScheduleWeek + 1]float64{0, 3, 3, 4, 4, 4, 4, 4, 5, 5, 6, 6, 6, 6, 5, 4, 4},
	},
	{
		Name: "silica_gold",
		Description: "- Increases cell wall strength and stem thickness\n- Tightens internodal spacing in vegetative growth\n" +
			"- Enhances flower density and hardness\n- Relieves environmental stress",
		WeekML: [MaxScheduleWeek + 1]float64{0, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2, 1, 1, 0},
	},
}

// BaseChemicals 返回内置配方表的副本
func BaseChemicals() []Chemical {
	return slices.Clone(baseChemicals)
}

// FindChemical 在给定配方中按名称查找
func FindChemical(chemicals []Chemical, name string) (Chemical, bool) {
	for _, chemical := range chemicals {
		if chemical.Name == name {
			return chemical, true
		}
	}
	return Chemical{}, false
}
