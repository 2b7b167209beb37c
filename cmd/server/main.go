package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	config "github.com/sharondanicka/ai-sales-dashboard/configs"
	"github.com/sharondanicka/ai-sales-dashboard/pkg/handlers"
	"github.com/sharondanicka/ai-sales-dashboard/pkg/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg := config.LoadConfig()

	r := gin.Default()

	// Services
	monitoringService := services.NewMonitoringService()
	datasetStore := services.NewDatasetStore()
	reportService := services.NewReportService()

	// Handlers
	datasetHandler := handlers.NewDatasetHandler(datasetStore, reportService, cfg)
	reportHandler := handlers.NewReportHandler(datasetStore, reportService)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	// Middleware
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.Default())

	authMiddleware := func(apiKey string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if apiKey == "" {
				c.Next()
				return
			}
			if c.GetHeader("X-API-KEY") != apiKey {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.Next()
		}
	}

	r.GET("/health", handlers.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware(cfg.APIKey))
	{
		datasets := v1.Group("/datasets")
		{
			datasets.POST("", datasetHandler.Upload)
			datasets.POST("/sample", datasetHandler.CreateSample)
			datasets.GET("/:id/preview", datasetHandler.Preview)
			datasets.POST("/:id/stages", datasetHandler.Stages)
			datasets.POST("/:id/report", reportHandler.Generate)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	log.Printf("Starting AI Sales Dashboard API on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
