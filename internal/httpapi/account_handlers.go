package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanejj/MealCheck/internal/apperr"
	"github.com/hanejj/MealCheck/internal/auth"
	"github.com/hanejj/MealCheck/internal/guard"
)

func (api *API) listAccounts(c *gin.Context) {
	if !api.allow(c, guard.OpListAccounts) {
		return
	}
	accounts, err := api.accounts.ListApproved(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (api *API) listActiveAccounts(c *gin.Context) {
	if !api.allow(c, guard.OpViewParticipants) {
		return
	}
	accounts, err := api.accounts.ListActive(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

type createAccountRequest struct {
	Handle     string  `json:"handle" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Password   string  `json:"password" binding:"required"`
	Department *string `json:"department"`
	Active     *bool   `json:"active"`
}

func (api *API) createAccount(c *gin.Context) {
	if !api.allow(c, guard.OpCreateAccount) {
		return
	}
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.New(apperr.Validation, "handle, name and password are required"))
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	acct, err := api.accounts.Create(c.Request.Context(), req.Handle, req.Name, req.Password, req.Department, active)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": acct})
}

type updateAccountRequest struct {
	Name       string  `json:"name" binding:"required"`
	Department *string `json:"department"`
	Active     *bool   `json:"active"`
}

func (api *API) updateAccount(c *gin.Context) {
	if !api.allow(c, guard.OpUpdateAccount) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.New(apperr.Validation, "name is required"))
		return
	}
	acct, err := api.accounts.Update(c.Request.Context(), id, req.Name, req.Department, req.Active)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acct})
}

func (api *API) deleteAccount(c *gin.Context) {
	if !api.allow(c, guard.OpDeleteAccount) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := api.accounts.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (api *API) changePassword(c *gin.Context) {
	if !api.allow(c, guard.OpChangePassword) {
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.New(apperr.Validation, "current and new password are required"))
		return
	}
	caller := auth.CurrentAccount(c)
	if err := api.accounts.ChangePassword(c.Request.Context(), caller.ID, req.CurrentPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": true})
}

func (api *API) userStatistics(c *gin.Context) {
	if !api.allow(c, guard.OpViewStatistics) {
		return
	}
	st, err := api.stats.Statistics(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
