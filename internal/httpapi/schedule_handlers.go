package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanejj/MealCheck/internal/apperr"
	"github.com/hanejj/MealCheck/internal/auth"
	"github.com/hanejj/MealCheck/internal/guard"
	"github.com/hanejj/MealCheck/internal/schedule"
)

type createScheduleRequest struct {
	MealDate    string  `json:"meal_date" binding:"required"`
	MealType    string  `json:"meal_type" binding:"required"`
	Description *string `json:"description"`
}

func (api *API) createSchedule(c *gin.Context) {
	if !api.allow(c, guard.OpCreateSchedule) {
		return
	}
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.New(apperr.Validation, "meal_date and meal_type are required"))
		return
	}
	caller := auth.CurrentAccount(c)
	sched, err := api.schedules.Create(c.Request.Context(), req.MealDate, schedule.MealType(req.MealType), req.Description, caller.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"schedule": sched})
}

func (api *API) deleteSchedule(c *gin.Context) {
	if !api.allow(c, guard.OpDeleteSchedule) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := api.schedules.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (api *API) upcomingSchedules(c *gin.Context) {
	if !api.allow(c, guard.OpViewSchedules) {
		return
	}
	schedules, err := api.schedules.ListUpcoming(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

func (api *API) schedulesByDate(c *gin.Context) {
	if !api.allow(c, guard.OpViewSchedules) {
		return
	}
	schedules, err := api.schedules.ListByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

func (api *API) getSchedule(c *gin.Context) {
	if !api.allow(c, guard.OpViewSchedules) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sched, err := api.schedules.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}

func (api *API) scheduleSummary(c *gin.Context) {
	if !api.allow(c, guard.OpViewSchedules) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sum, err := api.stats.Summary(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (api *API) participants(c *gin.Context) {
	if !api.allow(c, guard.OpViewParticipants) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	claims, err := api.claims.Claims(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": claims})
}

// checkedParticipants equals participants: a claim row IS a check. The
// route exists so callers can keep the checked/unchecked pairing.
func (api *API) checkedParticipants(c *gin.Context) {
	api.participants(c)
}

func (api *API) uncheckedParticipants(c *gin.Context) {
	if !api.allow(c, guard.OpViewParticipants) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	members, err := api.claims.NonClaimants(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unchecked": members})
}

type checkRequest struct {
	Note *string `json:"note"`
}

func (api *API) check(c *gin.Context) {
	if !api.allow(c, guard.OpCheckMeal) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req checkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.New(apperr.Validation, "malformed body"))
			return
		}
	}
	caller := auth.CurrentAccount(c)
	claim, created, err := api.claims.Check(c.Request.Context(), id, caller.ID, req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"claim": claim, "created": created})
}

func (api *API) uncheck(c *gin.Context) {
	if !api.allow(c, guard.OpUncheckMeal) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller := auth.CurrentAccount(c)
	removed, err := api.claims.Uncheck(c.Request.Context(), id, caller.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
