// Package router wires handlers and middleware into a gin engine.
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobportal-admin/internal/config"
	"github.com/justsurfingit/jobportal-admin/internal/handlers"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps is everything the routes need.
type Deps struct {
	Config       *config.Config
	Logger       logger.Logger
	Redis        *redis.Client
	Sessions     *middleware.SessionAuth
	Admins       *handlers.AdminHandler
	Jobs         *handlers.JobHandler
	Applications *handlers.ApplicationHandler
	Health       *handlers.HealthHandler
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	cfg.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	return cfg
}

// New builds the engine with every route mounted at the root, where the
// admin front end expects them.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics())
	r.Use(cors.New(corsConfig(d.Config.CORS.AllowedOrigins)))

	r.GET("/health", d.Health.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := func(c *gin.Context) { c.Next() }
	if d.Config.RateLimit.Enabled {
		limited = middleware.RateLimiter(d.Redis, d.Logger, middleware.RateLimiterConfig{
			Requests: d.Config.RateLimit.Requests,
			Window:   d.Config.RateLimit.Window(),
		})
	}
	r.POST("/register-admin", limited, d.Admins.Register)
	r.POST("/login-admin", limited, d.Admins.Login)

	api := r.Group("/")
	api.Use(d.Sessions.Handler())
	{
		api.POST("/logout-admin", d.Admins.Logout)

		// Admin routes
		api.GET("/admin/:email", d.Admins.GetProfile)
		api.PUT("/admin/update/:email", d.Admins.UpdateProfile)
		api.PUT("/admin/update-password/:email", d.Admins.ChangePassword)
		api.DELETE("/admin/delete/:email", d.Admins.DeleteAccount)

		// Job routes
		api.POST("/save-job", d.Jobs.CreateJob)
		api.POST("/jobs/extract", d.Jobs.ParseJob)
		api.GET("/jobs", d.Jobs.ListJobs)
		api.DELETE("/jobs/:id", d.Jobs.DeleteJob)

		// Application routes
		api.GET("/job-applications", d.Applications.ListApplications)
		api.PUT("/job-applications/:id", d.Applications.UpdateStatus)
		api.GET("/resume/:email", d.Applications.GetResume)
		api.GET("/applications-count", d.Applications.CountApplications)
	}

	return r
}
