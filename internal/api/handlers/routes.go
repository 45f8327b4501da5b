package handlers

import (
	"github.com/gin-gonic/gin"

	"agroledger.io/agroledger/internal/api/middleware"
)

// RegisterRoutes mounts the full API surface on the router. Middleware
// that is not route-specific (recovery, request id, error handling,
// CORS) is the caller's responsibility.
func RegisterRoutes(router *gin.Engine, s *Server, signingKey []byte) {
	router.GET("/healthz", s.Health)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", s.Login)

	authed := v1.Group("", middleware.JWTAuth(signingKey))
	{
		authed.GET("/auth/me", s.Me)

		authed.GET("/plots", s.ListPlots)
		authed.POST("/plots", s.CreatePlot)
		authed.GET("/plots/:id", s.GetPlot)
		authed.PUT("/plots/:id", s.UpdatePlot)
		authed.DELETE("/plots/:id", s.DeletePlot)
		authed.GET("/plots/:id/balance", s.PlotBalance)
		authed.GET("/plots/:id/crop-cycles", s.ListCropCycles)
		authed.POST("/plots/:id/crop-cycles", s.CreateCropCycle)
		authed.GET("/plots/:id/movements", s.ListMovements)
		authed.POST("/plots/:id/movements", s.CreateMovement)

		authed.GET("/crop-cycles/:id", s.GetCropCycle)
		authed.PUT("/crop-cycles/:id", s.UpdateCropCycle)
		authed.DELETE("/crop-cycles/:id", s.DeleteCropCycle)
		authed.GET("/crop-cycles/:id/treatments", s.ListTreatments)
		authed.POST("/crop-cycles/:id/treatments", s.CreateTreatment)

		authed.PUT("/treatments/:id", s.UpdateTreatment)
		authed.DELETE("/treatments/:id", s.DeleteTreatment)

		authed.PUT("/movements/:id", s.UpdateMovement)
		authed.DELETE("/movements/:id", s.DeleteMovement)
		authed.GET("/movements/recent", s.RecentMovements)

		authed.GET("/balance", s.BalanceSummary)

		admin := authed.Group("/admin", middleware.RequireAdmin())
		{
			admin.GET("/accounts", s.ListAccounts)
			admin.POST("/accounts", s.CreateAccount)
			admin.PUT("/accounts/:id", s.UpdateAccount)
			admin.PATCH("/accounts/:id/active", s.SetAccountActive)
			admin.DELETE("/accounts/:id", s.DeleteAccount)
		}
	}
}
