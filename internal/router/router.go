package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/vegcrib/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由。metrics 为 nil 时不暴露 /metrics
func SetupRouter(api *handler.API, sessionSecret string, metrics http.Handler, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("vegcrib_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/environments", api.ListEnvironments)
		apiGroup.POST("/environments", api.CreateEnvironment)
		apiGroup.GET("/environments/:name", api.GetEnvironment)
		apiGroup.DELETE("/environments/:name", api.DeleteEnvironment)

		apiGroup.GET("/plants", api.ListPlants)
		apiGroup.POST("/plants", api.CreatePlant)
		apiGroup.GET("/plants/:id", api.GetPlant)
		apiGroup.DELETE("/plants/:id", api.HarvestPlant)
		apiGroup.POST("/plants/:id/move", api.MovePlant)
		apiGroup.POST("/plants/:id/relocate", api.RelocatePlant)
		apiGroup.POST("/plants/:id/water", api.WaterPlant)
		apiGroup.GET("/plants/:id/schedule", api.PlantSchedule)

		apiGroup.GET("/schedule/:week", api.WeekSchedule)
		apiGroup.GET("/overrides", api.ListOverrides)
		apiGroup.POST("/overrides", api.SetOverride)
		apiGroup.GET("/chemicals", api.ListChemicals)

		apiGroup.GET("/ledger", api.ListLedger)
		apiGroup.GET("/ledger/verify", api.VerifyLedger)
	}

	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		} else if c.Writer.Status() >= http.StatusBadRequest {
			event = log.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
