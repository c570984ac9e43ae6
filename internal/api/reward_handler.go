package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stride/internal/service"
	"stride/internal/store"
)

// RewardHandler serves achievements and notifications
type RewardHandler struct {
	rewards *service.RewardsService
}

// NewRewardHandler creates a RewardHandler
func NewRewardHandler(rewards *service.RewardsService) *RewardHandler {
	return &RewardHandler{rewards: rewards}
}

// ListAchievements returns the catalog, optionally narrowed by ?category=
func (h *RewardHandler) ListAchievements(c *gin.Context) {
	ctx := c.Request.Context()
	owner := c.Param("owner")

	var (
		catalog []store.Achievement
		err     error
	)
	if category := c.Query("category"); category != "" {
		if !validCategory(store.AchievementCategory(category)) {
			abortWithError(c, http.StatusBadRequest, "unknown category "+category)
			return
		}
		catalog, err = h.rewards.AchievementsByCategory(ctx, owner, store.AchievementCategory(category))
	} else {
		catalog, err = h.rewards.Catalog(ctx, owner)
	}
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

func validCategory(c store.AchievementCategory) bool {
	for _, known := range store.Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Unlocked returns the unlocked achievements
func (h *RewardHandler) Unlocked(c *gin.Context) {
	unlocked, err := h.rewards.UnlockedAchievements(c.Request.Context(), c.Param("owner"))
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, unlocked)
}

// Summary returns unlocked/total counts
func (h *RewardHandler) Summary(c *gin.Context) {
	summary, err := h.rewards.ProgressSummary(c.Request.Context(), c.Param("owner"))
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Evaluate re-runs achievement evaluation over the stored runs
func (h *RewardHandler) Evaluate(c *gin.Context) {
	fresh, err := h.rewards.Evaluate(c.Request.Context(), c.Param("owner"))
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": fresh})
}

// Notifications returns the notification log, newest first
func (h *RewardHandler) Notifications(c *gin.Context) {
	log, err := h.rewards.Notifications(c.Request.Context(), c.Param("owner"))
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

// MarkRead removes a notification from the log
func (h *RewardHandler) MarkRead(c *gin.Context) {
	if err := h.rewards.MarkNotificationRead(c.Request.Context(), c.Param("owner"), c.Param("id")); err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
