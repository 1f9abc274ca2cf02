package api

import (
	"alcyxob/ai-coach/internal/domain" // Needed for RoleMiddleware
	"alcyxob/ai-coach/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	jobService service.PlanJobService,
) {
	jobHandler := NewPlanJobHandler(jobService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Coach Routes (members) ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleUser))
		{
			// POST /api/v1/coach/plan-jobs
			coachGroup.POST("/plan-jobs", jobHandler.CreatePlanJob)
			// GET /api/v1/coach/plan-jobs
			coachGroup.GET("/plan-jobs", jobHandler.ListPlanJobs)
			// GET /api/v1/coach/plan-jobs/{jobId}
			coachGroup.GET("/plan-jobs/:jobId", jobHandler.GetPlanJob)
			// GET /api/v1/coach/plan-jobs/{jobId}/archive
			coachGroup.GET("/plan-jobs/:jobId/archive", jobHandler.GetPlanArchive)
			// GET /api/v1/coach/plan-days?from=...&to=...
			coachGroup.GET("/plan-days", jobHandler.GetPlanDays)
		}
	}

	// --- Internal Worker Routes ---
	// Trigger contract for queue consumers and schedulers. Requires a
	// service-role token; runs the job synchronously.
	internalGroup := router.Group("/internal")
	internalGroup.Use(authMiddleware, RoleMiddleware(domain.RoleService))
	{
		// POST /internal/worker/plan-jobs
		internalGroup.POST("/worker/plan-jobs", jobHandler.RunPlanJob)
	}
}
