package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vegcrib/internal/domain"
)

type overridePayload struct {
	Week     int     `json:"week"`
	Chemical string  `json:"chemical"`
	Value    float64 `json:"value"`
}

type chemicalItem struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DescriptionHTML string    `json:"description_html"`
	WeekML          []float64 `json:"week_ml"`
}

// PlantSchedule 返回植株当前周的剂量
func (a *API) PlantSchedule(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的植株ID")
		return
	}

	view, err := a.backend.ScheduleForPlant(id)
	if err != nil {
		a.handleBackendError(c, err, "获取剂量表失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": view})
}

// WeekSchedule 返回指定周含覆盖项的剂量表
func (a *API) WeekSchedule(c *gin.Context) {
	week, err := strconv.Atoi(strings.TrimSpace(c.Param("week")))
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的周数")
		return
	}

	schedule, err := a.backend.ScheduleForWeek(week)
	if err != nil {
		a.handleBackendError(c, err, "获取剂量表失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"week": week, "doses": schedule})
}

// ListOverrides 按写入顺序返回覆盖项
func (a *API) ListOverrides(c *gin.Context) {
	overrides := a.backend.Overrides()
	items := make([]gin.H, 0, len(overrides))
	for _, o := range overrides {
		items = append(items, overrideToPayload(o))
	}
	c.JSON(http.StatusOK, gin.H{"overrides": items})
}

// SetOverride 新增剂量覆盖
func (a *API) SetOverride(c *gin.Context) {
	var payload overridePayload
	if !bindJSON(c, &payload, "覆盖参数格式错误") {
		return
	}

	override, err := a.backend.SetOverride(c.Request.Context(), payload.Week, payload.Chemical, payload.Value)
	if err != nil {
		a.handleBackendError(c, err, "保存覆盖失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"override": overrideToPayload(override)})
}

// ListChemicals 返回配方目录，描述渲染为 HTML
func (a *API) ListChemicals(c *gin.Context) {
	chemicals := a.backend.Chemicals()
	items := make([]chemicalItem, 0, len(chemicals))
	for _, chemical := range chemicals {
		var buf bytes.Buffer
		if err := a.markdown.Convert([]byte(chemical.Description), &buf); err != nil {
			a.log.Warn().Err(err).Str("chemical", chemical.Name).Msg("render chemical description")
			buf.Reset()
		}
		items = append(items, chemicalItem{
			Name:            chemical.Name,
			Description:     chemical.Description,
			DescriptionHTML: buf.String(),
			WeekML:          chemical.WeekML[:],
		})
	}
	c.JSON(http.StatusOK, gin.H{"chemicals": items})
}

func overrideToPayload(o domain.Override) gin.H {
	return gin.H{
		"week":     o.Week,
		"chemical": o.Chemical,
		"value":    o.Value,
		"seq":      o.Seq,
	}
}
