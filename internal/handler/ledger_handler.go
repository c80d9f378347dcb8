package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vegcrib/internal/db"
	"github.com/vegcrib/internal/service"
)

// ListLedger 查询审计台账，支持 plant_id、environment、action、operation_id、limit 过滤
func (a *API) ListLedger(c *gin.Context) {
	filter := service.LedgerFilter{
		Environment: c.Query("environment"),
		Action:      c.Query("action"),
		OperationID: strings.TrimSpace(c.Query("operation_id")),
		Limit:       parseIntQuery(c, "limit", 0),
	}
	if raw := strings.TrimSpace(c.Query("plant_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的植株ID")
			return
		}
		filter.PlantID = id
	}

	entries, err := a.backend.Ledger().List(c.Request.Context(), filter)
	if err != nil {
		a.handleBackendError(c, err, "获取台账失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ledgerEntryToPayload(entry))
	}
	c.JSON(http.StatusOK, gin.H{"entries": items})
}

// VerifyLedger 校验台账摘要链
func (a *API) VerifyLedger(c *gin.Context) {
	result, err := a.backend.Ledger().Verify(c.Request.Context())
	if err != nil {
		a.handleBackendError(c, err, "校验台账失败")
		return
	}
	c.JSON(http.StatusOK, result)
}

func ledgerEntryToPayload(entry db.LedgerEntry) gin.H {
	payload := gin.H{
		"id":           entry.ID,
		"event_time":   time.Unix(entry.EventEpoch, 0).UTC().Format(time.RFC3339),
		"operation_id": entry.OperationID,
		"action":       entry.Action,
		"digest":       entry.Digest,
	}
	if entry.PlantID != 0 || entry.PlantKey != "" {
		payload["plant"] = gin.H{
			"id":             entry.PlantID,
			"key":            entry.PlantKey,
			"harvest_type":   entry.HarvestType,
			"grow_type":      entry.GrowType,
			"thc":            entry.THC,
			"cbd":            entry.CBD,
			"age_in_weeks":   entry.AgeInWeeks,
			"container":      entry.ContainerDimensions,
			"harvest_amount": entry.HarvestAmount,
		}
	}
	if entry.EnvironmentName != "" {
		payload["environment"] = gin.H{
			"name":      entry.EnvironmentName,
			"capacity":  entry.EnvironmentCapacity,
			"occupancy": entry.GridOccupancy,
		}
	}
	if entry.Chemical != "" {
		payload["chemical"] = gin.H{
			"name": entry.Chemical,
			"ml":   entry.ChemicalML,
			"week": entry.Week,
		}
	}
	return payload
}
