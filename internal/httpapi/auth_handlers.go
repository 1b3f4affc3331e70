package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanejj/MealCheck/internal/apperr"
	"github.com/hanejj/MealCheck/internal/auth"
	"github.com/hanejj/MealCheck/internal/guard"
)

type registerRequest struct {
	Handle     string  `json:"handle" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Password   string  `json:"password" binding:"required"`
	Department *string `json:"department"`
}

func (api *API) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.New(apperr.Validation, "handle, name and password are required"))
		return
	}
	acct, err := api.accounts.Register(c.Request.Context(), req.Handle, req.Name, req.Password, req.Department)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": acct, "message": "registration pending approval"})
}

type loginRequest struct {
	Handle   string `json:"handle" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (api *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.New(apperr.Validation, "handle and password are required"))
		return
	}
	acct, err := api.accounts.Authenticate(c.Request.Context(), req.Handle, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, exp, err := auth.Issue(acct, api.cfg.JWTIssuer, api.cfg.JWTSigningKey, api.cfg.AccessTTL)
	if err != nil {
		fail(c, apperr.Wrap(apperr.Storage, "token issue failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_at":   exp.Unix(),
		"account":      acct,
	})
}

// registrationStatus is the public probe a pending registrant polls; it is
// the one read allowed before approval.
func (api *API) registrationStatus(c *gin.Context) {
	approval, err := api.accounts.RegistrationStatus(c.Request.Context(), c.Param("handle"))
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			c.JSON(http.StatusOK, gin.H{"registered": false})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registered": true, "approval": approval})
}

func (api *API) me(c *gin.Context) {
	if !api.allow(c, guard.OpReadOwnProfile) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": auth.CurrentAccount(c)})
}

func (api *API) listPending(c *gin.Context) {
	if !api.allow(c, guard.OpListPendingAccounts) {
		return
	}
	accounts, err := api.accounts.ListPending(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (api *API) approve(c *gin.Context) {
	if !api.allow(c, guard.OpApproveAccount) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := api.accounts.Approve(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "approval": "APPROVED"})
}

func (api *API) reject(c *gin.Context) {
	if !api.allow(c, guard.OpRejectAccount) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := api.accounts.Reject(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "approval": "REJECTED"})
}
