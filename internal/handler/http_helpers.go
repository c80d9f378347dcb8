package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vegcrib/internal/domain"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseInt64Param(c *gin.Context, key string) (int64, error) {
	raw := strings.TrimSpace(c.Param(key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// handleBackendError 将 Backend 错误映射为 HTTP 状态码，fallback 为未知错误的提示
func (a *API) handleBackendError(c *gin.Context, err error, fallback string) {
	var (
		validation *domain.ValidationError
		conflict   *domain.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "参数校验失败",
			"field":  validation.Field,
			"detail": validation.Reason,
		})
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrCapacity):
		respondError(c, http.StatusConflict, err.Error())
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":     conflict.Error(),
			"occupants": conflict.Occupants,
		})
	case errors.Is(err, domain.ErrPersistence):
		a.log.Error().Err(err).Str("path", c.FullPath()).Msg("persistence failure")
		respondError(c, http.StatusInternalServerError, "数据保存失败，当前修改尚未持久化")
	default:
		a.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// respondMutation 写入成功结果；若仅持久化失败，结果依然有效，附带警告
func (a *API) respondMutation(c *gin.Context, status int, payload gin.H, err error, fallback string) {
	if err != nil && !isOnlyPersistence(err) {
		a.handleBackendError(c, err, fallback)
		return
	}
	if err != nil {
		a.log.Error().Err(err).Str("path", c.FullPath()).Msg("mutation applied but not persisted")
		payload["warning"] = "修改已生效，但写入数据库失败"
		status = http.StatusInternalServerError
	}
	c.JSON(status, payload)
}

func isOnlyPersistence(err error) bool {
	if !errors.Is(err, domain.ErrPersistence) {
		return false
	}
	for _, sentinel := range []error{domain.ErrValidation, domain.ErrNotFound, domain.ErrCapacity, domain.ErrConflict} {
		if errors.Is(err, sentinel) {
			return false
		}
	}
	return true
}
