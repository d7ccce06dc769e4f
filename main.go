package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/pawsit/pawsit_backend/config"
	"github.com/pawsit/pawsit_backend/controllers"
	"github.com/pawsit/pawsit_backend/middleware"
	"github.com/pawsit/pawsit_backend/repositories"
	"github.com/pawsit/pawsit_backend/routes"
	"github.com/pawsit/pawsit_backend/services"
	"github.com/pawsit/pawsit_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (profile cache; nil disables caching)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	db := config.GetDatabase(client)

	// Initialize repositories
	profileRepo := repositories.NewProfileRepository(db, redisClient)
	requestRepo := repositories.NewRequestRepository(db, profileRepo)

	// Initialize the notification aggregator and realtime channel
	aggregator := services.NewNotificationAggregator(requestRepo, profileRepo, os.Getenv("IMAGE_BASE_URL"))
	hub := websocket.NewHub()
	wsHandler := websocket.NewHandler(hub, aggregator)

	// Initialize controllers
	requestController := controllers.NewRequestController(requestRepo, wsHandler)

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Pawsit Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Register request lifecycle + realtime routes
	routes.RegisterRequestRoutes(e, requestController, wsHandler)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
