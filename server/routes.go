package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the dashboard endpoints.
//
// Endpoints:
//
//	GET   /                              - Dashboard page
//	GET   /healthz                       - Health check
//	GET   /metrics                       - Prometheus metrics
//	GET   /artifacts/*key                - Pre-rendered artifact bytes
//	GET   /api/v1/options                - Selectable values
//	GET   /api/v1/selection              - Active selection
//	PATCH /api/v1/selection              - Change the selection
//	GET   /api/v1/dashboard              - Latest rendered dashboard
//	GET   /api/v1/dashboard/preview      - Render a selection without applying it
//	GET   /api/v1/words/tattoos          - Tattoo word frequencies
//	GET   /api/v1/words/charges          - Charge word frequencies
//	GET   /api/v1/topics                 - Topic model summary
//	GET   /api/v1/artifacts              - Stored artifacts
func RegisterRoutes(r *gin.Engine, handlers *Handlers) {
	r.GET("/", handlers.HandleIndex)
	r.GET("/healthz", handlers.HandleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/artifacts/*key", handlers.HandleArtifact)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/options", handlers.HandleOptions)

		v1.GET("/selection", handlers.HandleGetSelection)
		v1.PATCH("/selection", handlers.HandlePatchSelection)

		v1.GET("/dashboard", handlers.HandleDashboard)
		v1.GET("/dashboard/preview", handlers.HandlePreview)

		v1.GET("/words/tattoos", handlers.HandleTattooWords)
		v1.GET("/words/charges", handlers.HandleChargeWords)
		v1.GET("/topics", handlers.HandleTopics)
		v1.GET("/artifacts", handlers.HandleListArtifacts)
	}
}
