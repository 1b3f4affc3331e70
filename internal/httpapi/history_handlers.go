package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hanejj/MealCheck/internal/auth"
	"github.com/hanejj/MealCheck/internal/guard"
)

func (api *API) myHistory(c *gin.Context) {
	if !api.allow(c, guard.OpViewOwnHistory) {
		return
	}
	caller := auth.CurrentAccount(c)
	entries, err := api.claims.AccountHistory(c.Request.Context(), caller.ID, c.Query("start"), c.Query("end"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (api *API) allHistory(c *gin.Context) {
	if !api.allow(c, guard.OpViewAllHistory) {
		return
	}
	entries, err := api.claims.AllHistory(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (api *API) auditTrail(c *gin.Context) {
	if !api.allow(c, guard.OpViewAudit) {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	records, err := api.claims.AuditTrail(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit": records})
}
