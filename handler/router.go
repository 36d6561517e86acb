package handler

import (
	"log/slog"

	"tonotes/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodySize = 1 << 20

type RouterConfig struct {
	Notes  *NotesHandler
	Admin  *AdminHandler
	Health *HealthHandler

	JWTSecret      string
	Issuer         string
	AdminUserIDs   []string
	AllowedOrigins []string
	Logger         *slog.Logger
}

func SetupRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestTracingMiddleware(cfg.Logger),
		middleware.EnhancedRecoveryMiddleware(),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.RequestSizeLimiter(maxBodySize),
	)

	r.GET("/health", cfg.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(
		middleware.CacheControlMiddleware("no-store"),
		middleware.AuthMiddleware(cfg.JWTSecret, cfg.Issuer),
	)

	notes := api.Group("/notes")
	{
		notes.GET("", cfg.Notes.ListNotes)
		notes.GET("/search", cfg.Notes.SearchNotes)
		notes.POST("", cfg.Notes.CreateNote)
		notes.GET("/:id", cfg.Notes.GetNote)
		notes.PUT("/:id", cfg.Notes.UpdateNote)
		notes.DELETE("/:id", cfg.Notes.DeleteNote)
		notes.POST("/:id/collaborators", cfg.Notes.AddCollaborator)
		notes.DELETE("/:id/collaborators/:userId", cfg.Notes.RemoveCollaborator)
		notes.PATCH("/:id/pin", cfg.Notes.TogglePin)
		notes.PATCH("/:id/move", cfg.Notes.MoveNote)
		notes.POST("/:id/images", cfg.Notes.AttachImage)
	}

	admin := api.Group("/admin", middleware.RequireUser(cfg.AdminUserIDs))
	admin.POST("/resync", cfg.Admin.Resync)

	return r
}
