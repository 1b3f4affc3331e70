// Package httpapi is the thin transport layer over the record-keeping
// engine. Handlers translate requests, evaluate the guard, and map errors;
// all rules live in the services.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hanejj/MealCheck/internal/account"
	"github.com/hanejj/MealCheck/internal/auth"
	"github.com/hanejj/MealCheck/internal/config"
	"github.com/hanejj/MealCheck/internal/httpmiddleware"
	"github.com/hanejj/MealCheck/internal/ledger"
	"github.com/hanejj/MealCheck/internal/schedule"
	"github.com/hanejj/MealCheck/internal/stats"
	"github.com/hanejj/MealCheck/internal/store"
)

// API holds the services the handlers call.
type API struct {
	cfg       config.App
	accounts  *account.Service
	schedules *schedule.Service
	claims    *ledger.Service
	stats     *stats.Service
}

// New creates the handler set.
func New(cfg config.App, accounts *account.Service, schedules *schedule.Service, claims *ledger.Service, statsSvc *stats.Service) *API {
	return &API{cfg: cfg, accounts: accounts, schedules: schedules, claims: claims, stats: statsSvc}
}

// Router wires middleware and routes.
func (api *API) Router(db *store.DB, rdb *store.Redis) *gin.Engine {
	if api.cfg.Env == "production" || api.cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(api.cfg.RateLimitPerMin, api.cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := rdb.Healthy(c.Request.Context())
		dbHealthy := db != nil && db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/register", api.register)
	r.POST("/v1/auth/login", api.login)
	r.GET("/v1/auth/status/:handle", api.registrationStatus)

	v1 := r.Group("/v1", auth.RequireAccount(api.cfg.JWTSigningKey, api.cfg.JWTIssuer, api.accounts))
	{
		v1.GET("/auth/me", api.me)
		v1.GET("/auth/pending", api.listPending)
		v1.POST("/auth/approve/:id", api.approve)
		v1.POST("/auth/reject/:id", api.reject)

		v1.GET("/users", api.listAccounts)
		v1.GET("/users/active", api.listActiveAccounts)
		v1.POST("/users", api.createAccount)
		v1.PUT("/users/:id", api.updateAccount)
		v1.DELETE("/users/:id", api.deleteAccount)
		v1.POST("/users/change-password", api.changePassword)
		v1.GET("/users/statistics", api.userStatistics)

		v1.POST("/schedules", api.createSchedule)
		v1.DELETE("/schedules/:id", api.deleteSchedule)
		v1.GET("/schedules/upcoming", api.upcomingSchedules)
		v1.GET("/schedules/date/:date", api.schedulesByDate)
		v1.GET("/schedules/:id", api.getSchedule)
		v1.GET("/schedules/:id/summary", api.scheduleSummary)
		v1.GET("/schedules/:id/participants", api.participants)
		v1.GET("/schedules/:id/participants/checked", api.checkedParticipants)
		v1.GET("/schedules/:id/participants/unchecked", api.uncheckedParticipants)
		v1.POST("/schedules/:id/check", api.check)
		v1.POST("/schedules/:id/uncheck", api.uncheck)

		v1.GET("/history/my", api.myHistory)
		v1.GET("/history/all", api.allHistory)
		v1.GET("/claims/audit", api.auditTrail)
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
