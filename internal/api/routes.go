// Package api serves runs, statistics and achievements over HTTP
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stride/internal/logger"
	"stride/internal/service"
)

// Services bundles what the handlers call
type Services struct {
	Runs    *service.RunService
	Query   *service.QueryService
	Rewards *service.RewardsService
}

// NewRouter builds the gin engine with every route registered
func NewRouter(svc Services, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))
	SetupRoutes(router, svc, time.Now)
	return router
}

// SetupRoutes registers the API on router. now supplies the reference time
// for period queries without a date.
func SetupRoutes(router *gin.Engine, svc Services, now func() time.Time) {
	runHandler := NewRunHandler(svc.Runs, svc.Query, now)
	statsHandler := NewStatsHandler(svc.Query, now)
	rewardHandler := NewRewardHandler(svc.Rewards)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	user := router.Group("/api/v1/users/:owner")
	{
		user.GET("/runs", runHandler.ListRuns)
		user.POST("/runs", runHandler.CreateRun)
		user.POST("/runs/track", runHandler.ImportTrack)
		user.PUT("/runs/:id", runHandler.UpdateRun)
		user.DELETE("/runs/:id", runHandler.DeleteRun)

		user.GET("/stats", statsHandler.Stats)
		user.GET("/period", statsHandler.Period)
		user.GET("/trend", statsHandler.Trend)
		user.GET("/records", statsHandler.Records)

		user.GET("/achievements", rewardHandler.ListAchievements)
		user.GET("/achievements/unlocked", rewardHandler.Unlocked)
		user.GET("/achievements/summary", rewardHandler.Summary)
		user.POST("/achievements/evaluate", rewardHandler.Evaluate)
		user.GET("/notifications", rewardHandler.Notifications)
		user.DELETE("/notifications/:id", rewardHandler.MarkRead)
	}
}
