package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brieflyhq/briefly/internal/handlers"
	"github.com/brieflyhq/briefly/internal/middleware"
)

// SetupRouter wires every endpoint. corsOrigin is the comma separated list of
// frontend origins allowed to call the API.
func SetupRouter(h *handlers.Handlers, tokens middleware.TokenValidator, corsOrigin string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	// --- APPLY THE CORS GUARD ---
	router.Use(middleware.CORS(corsOrigin))

	// --- Public pages & files ---
	router.GET("/share/:id", h.ShareForm)
	router.POST("/share/:id", h.ShareSubmit)
	router.GET("/storage/:bucket/*key", h.ServeObject)

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)

		// --- Respondent Routes (Public) ---
		public := v1.Group("/public/briefs/:id")
		{
			public.GET("", h.GetPublicBrief)
			public.POST("/uploads", h.UploadAsset)
			public.POST("/responses", h.SubmitResponse)
		}

		// --- Billing Routes (Public) ---
		v1.GET("/subscriptions/plans", h.GetSubscriptionPlans)
		v1.POST("/webhooks/paypal", h.PayPalWebhook)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("")
		auth.Use(middleware.AuthMiddleware(tokens))
		{
			// --- Briefs ---
			auth.GET("/briefs", h.ListBriefs)
			auth.POST("/briefs", h.CreateBrief)
			auth.POST("/briefs/suggest", h.SuggestQuestions)

			briefs := auth.Group("/briefs/:id")
			{
				briefs.GET("", h.GetBrief)
				briefs.PUT("", h.UpdateBrief)
				briefs.DELETE("", h.DeleteBrief)
				briefs.GET("/share", h.ShareBrief)
				briefs.POST("/logo", h.UploadLogo)

				// --- Builder ---
				briefs.POST("/questions", h.AddQuestion)
				briefs.POST("/questions/move", h.MoveQuestion)
				briefs.PATCH("/questions/:qid", h.UpdateQuestion)
				briefs.DELETE("/questions/:qid", h.RemoveQuestion)
				briefs.POST("/questions/:qid/options", h.AddOption)
				briefs.PUT("/questions/:qid/options/:index", h.UpdateOption)
				briefs.DELETE("/questions/:qid/options/:index", h.RemoveOption)

				// --- Responses ---
				briefs.GET("/responses", h.ListResponses)
				briefs.GET("/responses/:responseId", h.GetResponse)
				briefs.GET("/export", h.ExportResponses)
			}

			// --- Subscriptions ---
			auth.GET("/subscriptions/me", h.GetMySubscription)
			auth.POST("/subscriptions", h.CreateSubscription)
			auth.POST("/subscriptions/cancel", h.CancelSubscription)
		}
	}

	return router
}
