package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hanejj/MealCheck/internal/apperr"
	"github.com/hanejj/MealCheck/internal/auth"
	"github.com/hanejj/MealCheck/internal/guard"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Authentication:
		return http.StatusUnauthorized
	case apperr.Authorization:
		return http.StatusForbidden
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.NotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fail maps the error taxonomy onto HTTP. Storage causes are logged but
// never echoed to the client.
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := apperr.Message(err)
	if kind == apperr.Storage {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("storage failure")
		msg = "temporary failure, retry later"
	}
	c.JSON(statusFor(kind), gin.H{"error": msg, "code": kind.String()})
}

// allow evaluates the guard for the caller's snapshot; on denial it writes
// the response and returns false.
func (api *API) allow(c *gin.Context, op guard.Operation) bool {
	d := guard.Evaluate(auth.CurrentAccount(c), op)
	if d.Allowed {
		return true
	}
	status := http.StatusForbidden
	code := apperr.Authorization.String()
	if d.Reason == guard.ReasonUnauthenticated {
		status = http.StatusUnauthorized
		code = apperr.Authentication.String()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": string(d.Reason), "code": code})
	return false
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "code": apperr.Validation.String()})
		return 0, false
	}
	return id, true
}
