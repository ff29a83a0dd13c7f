// Package api wires the HTTP surface: public job intake and status for
// the kiosk screen, operator-only endpoints behind JWT auth.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/andriemoral27/PrinTech-Main/internal/api/handlers"
	"github.com/andriemoral27/PrinTech-Main/internal/api/middleware"
	"github.com/andriemoral27/PrinTech-Main/internal/core"
)

func NewRouter(kiosk *core.Kiosk, ledger *core.PaperLedger, notifier core.Notifier, auth *middleware.AuthMiddleware) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), gin.Logger())

	jobs := handlers.NewJobHandler(kiosk)
	paper := handlers.NewPaperHandler(ledger, notifier)
	prices := handlers.NewPriceHandler()

	apiGroup := router.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/login", auth.LoginHandler)
			authGroup.POST("/logout", auth.LogoutHandler)
			authGroup.GET("/status", auth.StatusHandler)
			authGroup.POST("/setup", auth.SetupHandler)
			authGroup.POST("/change-password", auth.RequireAuth(), auth.ChangePasswordHandler)
		}

		apiGroup.POST("/jobs", jobs.CreateJob)
		apiGroup.GET("/jobs", jobs.ListJobs)
		apiGroup.GET("/jobs/:id", jobs.GetJob)
		apiGroup.POST("/jobs/:id/cancel", jobs.CancelJob)

		apiGroup.GET("/paper", paper.GetStatus)
		apiGroup.GET("/paper/history", paper.GetHistory)
		apiGroup.POST("/paper/refill", auth.RequireAuth(), paper.Refill)

		apiGroup.GET("/prices/current", prices.GetCurrent)
		apiGroup.GET("/prices", prices.ListTables)
		apiGroup.POST("/prices", auth.RequireAuth(), prices.CreateTable)
	}

	return router
}
