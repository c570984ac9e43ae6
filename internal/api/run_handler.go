package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stride/internal/analysis"
	"stride/internal/service"
	"stride/internal/store"
)

// RunHandler serves run writes and listings
type RunHandler struct {
	runs  *service.RunService
	query *service.QueryService
	now   func() time.Time
}

// NewRunHandler creates a RunHandler
func NewRunHandler(runs *service.RunService, query *service.QueryService, now func() time.Time) *RunHandler {
	return &RunHandler{runs: runs, query: query, now: now}
}

// RunRequest is the body of a run create or update
type RunRequest struct {
	ID            string             `json:"id"`
	Date          time.Time          `json:"date"`
	Distance      float64            `json:"distance"` // km
	Duration      int                `json:"duration"` // seconds
	Calories      int                `json:"calories"` // 0 or absent: estimated from distance
	Type          string             `json:"type"`
	Coordinates   []store.Coordinate `json:"coordinates"`
	StartLocation *store.LatLng      `json:"startLocation"`
	EndLocation   *store.LatLng      `json:"endLocation"`
}

func (r RunRequest) toRun(ownerID string) store.Run {
	return store.Run{
		ID:            r.ID,
		OwnerID:       ownerID,
		Date:          r.Date,
		Distance:      r.Distance,
		Duration:      r.Duration,
		Calories:      r.Calories,
		Type:          store.RunType(r.Type),
		Coordinates:   r.Coordinates,
		StartLocation: r.StartLocation,
		EndLocation:   r.EndLocation,
	}
}

// TrackRequest is a raw GPS recording to turn into a run
type TrackRequest struct {
	Type        string             `json:"type"`
	Coordinates []store.Coordinate `json:"coordinates" binding:"required"`
}

// SaveResponse reports a stored run and the notifications it triggered.
// EvaluationError is set when the run was stored but evaluation failed.
type SaveResponse struct {
	Run             store.Run                  `json:"run"`
	Notifications   []store.RewardNotification `json:"notifications"`
	EvaluationError string                     `json:"evaluationError,omitempty"`
}

func toSaveResponse(res *service.SaveResult) SaveResponse {
	resp := SaveResponse{Run: res.Run, Notifications: res.Notifications}
	if res.EvaluationErr != nil {
		resp.EvaluationError = res.EvaluationErr.Error()
	}
	return resp
}

// ListRuns returns the owner's runs, newest first. With ?period= (and an
// optional ?date=) only the runs of that period are returned.
func (h *RunHandler) ListRuns(c *gin.Context) {
	owner := c.Param("owner")

	if c.Query("period") == "" {
		runs, err := h.query.Runs(c.Request.Context(), owner)
		if err != nil {
			abortWithStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, runs)
		return
	}

	kind, err := analysis.ParsePeriodKind(c.Query("period"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	t, err := parseDate(c.Query("date"), h.now)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := h.query.RunsForPeriod(c.Request.Context(), owner, kind, t)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

// CreateRun stores a new run and evaluates achievements
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	res, err := h.runs.SaveRun(c.Request.Context(), req.toRun(c.Param("owner")))
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSaveResponse(res))
}

// ImportTrack builds a run from GPS samples and stores it
func (h *RunHandler) ImportTrack(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	res, err := h.runs.RecordTrack(c.Request.Context(), c.Param("owner"), store.RunType(req.Type), req.Coordinates)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSaveResponse(res))
}

// UpdateRun replaces the run named in the path
func (h *RunHandler) UpdateRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	req.ID = c.Param("id")

	res, err := h.runs.UpdateRun(c.Request.Context(), req.toRun(c.Param("owner")))
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSaveResponse(res))
}

// DeleteRun removes the run named in the path
func (h *RunHandler) DeleteRun(c *gin.Context) {
	if err := h.runs.DeleteRun(c.Request.Context(), c.Param("owner"), c.Param("id")); err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
