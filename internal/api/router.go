package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/places-backend-go/internal/config"
	"github.com/jengzang/places-backend-go/internal/handler"
	"github.com/jengzang/places-backend-go/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Track      *handler.TrackHandler
	Processing *handler.ProcessingHandler
	Place      *handler.PlaceHandler
	Visit      *handler.VisitHandler
	Stats      *handler.StatsHandler
}

// SetupRouter builds the gin engine. limiter may be nil when rate limiting is disabled.
func SetupRouter(cfg *config.Config, h Handlers, limiter *middleware.RateLimiter, log logrus.FieldLogger) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Places Backend API is running",
		})
	})

	subjects := r.Group("/api/v1/subjects/:subject")
	subjects.Use(middleware.JWTAuth(cfg.Auth.JWTSecret))
	if limiter != nil {
		subjects.Use(middleware.RateLimit(limiter))
	}
	{
		subjects.POST("/points", h.Track.IngestPoints)
		subjects.GET("/points/unprocessed", h.Track.GetUnprocessedPoints)

		subjects.POST("/process", h.Processing.Process)
		subjects.POST("/reprocess", h.Processing.Reprocess)

		places := subjects.Group("/places")
		{
			places.GET("", h.Place.ListPlaces)
			places.GET("/nearest", h.Place.NearestPlace)
			places.GET("/:id", h.Place.GetPlace)
			places.PUT("/:id/label", h.Place.LabelPlace)
			places.POST("/:id/enrichment", h.Place.EnrichPlace)
		}

		subjects.GET("/visits", h.Visit.ListVisits)
		subjects.GET("/stats/travel", h.Stats.GetTravelStats)
	}

	return r
}
