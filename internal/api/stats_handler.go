package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stride/internal/analysis"
	"stride/internal/service"
)

const dateLayout = "2006-01-02"

// StatsHandler serves period statistics and personal records
type StatsHandler struct {
	query *service.QueryService
	now   func() time.Time
}

// NewStatsHandler creates a StatsHandler
func NewStatsHandler(query *service.QueryService, now func() time.Time) *StatsHandler {
	return &StatsHandler{query: query, now: now}
}

// PeriodResponse is the result of a period navigation
type PeriodResponse struct {
	Date   time.Time       `json:"date"`
	Period analysis.Period `json:"period"`
}

// parseDate accepts YYYY-MM-DD (local midnight) or RFC 3339. Empty means now.
func parseDate(s string, now func() time.Time) (time.Time, error) {
	if s == "" {
		return now(), nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	return t, nil
}

// periodQuery reads ?period= (default week) and ?date=
func (h *StatsHandler) periodQuery(c *gin.Context) (analysis.PeriodKind, time.Time, bool) {
	kind, err := analysis.ParsePeriodKind(c.DefaultQuery("period", string(analysis.PeriodWeek)))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return "", time.Time{}, false
	}
	t, err := parseDate(c.Query("date"), h.now)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return "", time.Time{}, false
	}
	return kind, t, true
}

// Stats returns the totals of one period
func (h *StatsHandler) Stats(c *gin.Context) {
	kind, t, ok := h.periodQuery(c)
	if !ok {
		return
	}
	stats, err := h.query.StatsForPeriod(c.Request.Context(), c.Param("owner"), kind, t)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Period describes the period containing ?date=, or with ?direction= the
// previous or next one
func (h *StatsHandler) Period(c *gin.Context) {
	kind, t, ok := h.periodQuery(c)
	if !ok {
		return
	}

	if d := c.Query("direction"); d != "" {
		dir, err := analysis.ParseDirection(d)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		shifted, period := h.query.Navigate(kind, dir, t)
		c.JSON(http.StatusOK, PeriodResponse{Date: shifted, Period: period})
		return
	}
	c.JSON(http.StatusOK, PeriodResponse{Date: t, Period: analysis.PeriodFor(kind, t)})
}

// Trend returns ?n= consecutive periods ending with the one containing ?date=
func (h *StatsHandler) Trend(c *gin.Context) {
	kind, t, ok := h.periodQuery(c)
	if !ok {
		return
	}
	n := 0
	if s := c.Query("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("invalid n %q", s))
			return
		}
		n = v
	}

	trend, err := h.query.Trend(c.Request.Context(), c.Param("owner"), kind, t, n)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

// Records returns the projected personal records
func (h *StatsHandler) Records(c *gin.Context) {
	records, err := h.query.PersonalRecords(c.Request.Context(), c.Param("owner"))
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
