package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the page and API routes. Session middleware must
// already be installed on router.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.Use(CORSMiddleware(handler.cfg.FrontendOrigins))
	router.Use(RequestLogger(handler.log))

	router.StaticFS("/static", handler.staticFS())

	// --- Pages ---
	router.GET("/", handler.HandleUploadPage)
	router.POST("/upload", MaxBodySize(handler.cfg.MaxUploadBytes), handler.HandleUpload)
	router.GET("/explanation", handler.HandleExplanationPage)
	router.GET("/quiz", handler.HandleQuizPage)
	router.POST("/quiz/select", handler.HandleQuizSelectForm)
	router.POST("/quiz/submit", handler.HandleQuizSubmitForm)

	// --- API Routes ---
	api := router.Group("/api")
	{
		api.GET("/health", handler.HandleHealth)
		api.POST("/process-files", MaxBodySize(handler.cfg.MaxUploadBytes), handler.HandleProcessFiles)

		api.GET("/explanation", handler.HandleGetExplanation)
		api.GET("/quiz", handler.HandleGetQuiz)
		api.POST("/quiz/select", handler.HandleSelectAnswer)
		api.POST("/quiz/submit", handler.HandleSubmitQuiz)
		api.DELETE("/session", handler.HandleClearSession)
	}
}
