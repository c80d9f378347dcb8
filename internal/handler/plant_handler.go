package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vegcrib/internal/domain"
)

type plantPayload struct {
	Name                string  `json:"name"`
	HarvestType         string  `json:"harvest_type"`
	GrowType            string  `json:"grow_type"`
	THC                 float64 `json:"thc"`
	CBD                 float64 `json:"cbd"`
	BirthDate           string  `json:"birth_date"`
	Environment         string  `json:"environment"`
	ContainerDimensions string  `json:"container"`
}

type movePayload struct {
	Environment string `json:"environment"`
}

type relocatePayload struct {
	Slot string `json:"slot"`
}

type harvestPayload struct {
	HarvestAmount float64 `json:"harvest_amount"`
}

type waterPayload struct {
	Litres float64 `json:"litres"`
}

// ListPlants 返回全部植株，可按环境过滤
func (a *API) ListPlants(c *gin.Context) {
	plants := a.backend.ListPlants()

	if env := strings.TrimSpace(c.Query("environment")); env != "" {
		normalized := domain.NormalizeEnvironmentName(env)
		filtered := plants[:0]
		for _, plant := range plants {
			if plant.Environment == normalized {
				filtered = append(filtered, plant)
			}
		}
		plants = filtered
	}

	c.JSON(http.StatusOK, gin.H{"plants": plants})
}

// GetPlant 返回单个植株
func (a *API) GetPlant(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的植株ID")
		return
	}

	view, err := a.backend.GetPlant(id)
	if err != nil {
		a.handleBackendError(c, err, "获取植株失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"plant": view})
}

// CreatePlant 创建植株；未指定环境时使用会话中最近的环境
func (a *API) CreatePlant(c *gin.Context) {
	var payload plantPayload
	if !bindJSON(c, &payload, "植株参数格式错误") {
		return
	}

	birth, err := domain.ParseDate(payload.BirthDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "参数校验失败",
			"field":  "birth_date",
			"detail": "expected YYYY-MM-DD",
		})
		return
	}

	envName := strings.TrimSpace(payload.Environment)
	if envName == "" {
		envName = lastEnvironment(c)
	}

	view, err := a.backend.CreatePlant(c.Request.Context(), domain.PlantSpec{
		Name:                payload.Name,
		HarvestType:         payload.HarvestType,
		GrowType:            payload.GrowType,
		THC:                 payload.THC,
		CBD:                 payload.CBD,
		BirthDate:           birth,
		Environment:         envName,
		ContainerDimensions: payload.ContainerDimensions,
	})
	if err == nil || isOnlyPersistence(err) {
		rememberEnvironment(c, view.Environment)
	}
	a.respondMutation(c, http.StatusCreated, gin.H{"plant": view}, err, "创建植株失败")
}

// MovePlant 将植株移动到另一个环境
func (a *API) MovePlant(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的植株ID")
		return
	}

	var payload movePayload
	if !bindJSON(c, &payload, "移动参数格式错误") {
		return
	}

	view, err := a.backend.MovePlant(c.Request.Context(), id, payload.Environment)
	if err == nil || isOnlyPersistence(err) {
		rememberEnvironment(c, view.Environment)
	}
	a.respondMutation(c, http.StatusOK, gin.H{"plant": view}, err, "移动植株失败")
}

// RelocatePlant 在同一环境内调整槽位
func (a *API) RelocatePlant(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的植株ID")
		return
	}

	var payload relocatePayload
	if !bindJSON(c, &payload, "槽位参数格式错误") {
		return
	}

	view, err := a.backend.RelocatePlant(c.Request.Context(), id, payload.Slot)
	a.respondMutation(c, http.StatusOK, gin.H{"plant": view}, err, "调整槽位失败")
}

// HarvestPlant 记录收获量并移除植株
func (a *API) HarvestPlant(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的植株ID")
		return
	}

	var payload harvestPayload
	if c.Request.ContentLength != 0 && !bindJSON(c, &payload, "收获参数格式错误") {
		return
	}

	view, err := a.backend.DeletePlant(c.Request.Context(), id, payload.HarvestAmount)
	a.respondMutation(c, http.StatusOK, gin.H{"plant": view}, err, "收获植株失败")
}

// WaterPlant 按当前周剂量记录一次浇灌
func (a *API) WaterPlant(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的植株ID")
		return
	}

	var payload waterPayload
	if c.Request.ContentLength != 0 && !bindJSON(c, &payload, "浇灌参数格式错误") {
		return
	}

	view, err := a.backend.RecordWatering(c.Request.Context(), id, payload.Litres)
	a.respondMutation(c, http.StatusOK, gin.H{"schedule": view}, err, "记录浇灌失败")
}
