package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/serega19851/task-manager/internal/cache"
	"github.com/serega19851/task-manager/internal/config"
	"github.com/serega19851/task-manager/internal/handlers"
	"github.com/serega19851/task-manager/internal/repo"
	"github.com/serega19851/task-manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, db *pgxpool.Pool, rdb *redis.Client, log *slog.Logger) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg, db))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	api := r.Group(cfg.App.APIPrefix)

	taskRepo := repo.NewPGTaskRepo(db)
	var taskCache *cache.TaskCache
	if rdb != nil {
		taskCache = cache.NewTaskCache(rdb, cfg.Redis.DefaultTTL.Duration())
	}
	taskSvc := service.NewTaskService(taskRepo, taskCache, log)
	taskHandler := handlers.NewTaskHandler(taskSvc, log)
	registerTaskRoutes(api, taskHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		prefix := cfg.App.APIPrefix
		c.JSON(200, gin.H{
			"message":   cfg.App.Name,
			"status":    "working",
			"version":   cfg.App.Version,
			"env":       cfg.App.Env,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"docs":      "/swagger/index.html",
			"api": gin.H{
				"v1": prefix,
				"endpoints": []string{
					"POST " + prefix + "/tasks - create a task",
					"GET " + prefix + "/tasks - list tasks",
					"GET " + prefix + "/tasks/{id} - task by ID",
					"PUT " + prefix + "/tasks/{id} - update a task",
					"DELETE " + prefix + "/tasks/{id} - delete a task",
				},
			},
		})
	}
}

func healthHandler(cfg config.Config, db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, database := "healthy", "connected"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			status, database = "degraded", "unreachable"
		}
		c.JSON(200, gin.H{
			"status":    status,
			"service":   "task-manager-api",
			"version":   cfg.App.Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  database,
		})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	api.POST("/tasks", h.Create)
	api.GET("/tasks", h.List)
	api.GET("/tasks/:id", h.GetByID)
	api.PUT("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)
}
