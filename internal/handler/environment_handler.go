package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/vegcrib/internal/domain"
)

const sessionEnvironmentKey = "last_environment"

type environmentPayload struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// ListEnvironments 返回全部环境及其占用情况
func (a *API) ListEnvironments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"environments": a.backend.ListEnvironments()})
}

// GetEnvironment 返回单个环境
func (a *API) GetEnvironment(c *gin.Context) {
	view, err := a.backend.GetEnvironment(c.Param("name"))
	if err != nil {
		a.handleBackendError(c, err, "获取环境失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"environment": view})
}

// CreateEnvironment 创建环境并记入会话
func (a *API) CreateEnvironment(c *gin.Context) {
	var payload environmentPayload
	if !bindJSON(c, &payload, "环境参数格式错误") {
		return
	}

	view, err := a.backend.CreateEnvironment(c.Request.Context(), payload.Name, payload.Rows, payload.Columns)
	if err == nil || isOnlyPersistence(err) {
		rememberEnvironment(c, view.Name)
	}
	a.respondMutation(c, http.StatusCreated, gin.H{"environment": view}, err, "创建环境失败")
}

// DeleteEnvironment 删除空环境，非空时返回 409 并列出占用者
func (a *API) DeleteEnvironment(c *gin.Context) {
	name := c.Param("name")
	err := a.backend.DeleteEnvironment(c.Request.Context(), name)
	if err == nil || isOnlyPersistence(err) {
		forgetEnvironment(c, name)
	}
	a.respondMutation(c, http.StatusOK, gin.H{"deleted": name}, err, "删除环境失败")
}

func rememberEnvironment(c *gin.Context, name string) {
	session := sessions.Default(c)
	session.Set(sessionEnvironmentKey, name)
	if err := session.Save(); err != nil {
		c.Error(err)
	}
}

func forgetEnvironment(c *gin.Context, name string) {
	session := sessions.Default(c)
	if last, ok := session.Get(sessionEnvironmentKey).(string); !ok || last != domain.NormalizeEnvironmentName(name) {
		return
	}
	session.Delete(sessionEnvironmentKey)
	if err := session.Save(); err != nil {
		c.Error(err)
	}
}

func lastEnvironment(c *gin.Context) string {
	name, _ := sessions.Default(c).Get(sessionEnvironmentKey).(string)
	return name
}
