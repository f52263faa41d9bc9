package main

import (
	"log"
	"os"
	"time"

	"github.com/fleetrent/fleetrent-backend/internal/accounts"
	"github.com/fleetrent/fleetrent-backend/internal/bookings"
	"github.com/fleetrent/fleetrent-backend/internal/database"
	"github.com/fleetrent/fleetrent-backend/internal/fleet"
	"github.com/fleetrent/fleetrent-backend/internal/handlers"
	"github.com/fleetrent/fleetrent-backend/internal/middleware"
	"github.com/fleetrent/fleetrent-backend/internal/reservations"
	"github.com/fleetrent/fleetrent-backend/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	directory := accounts.NewDirectory(db)
	registry := fleet.NewRegistry(db)
	ledger := bookings.NewLedger(db)
	coordinator := reservations.NewCoordinator(db, ledger)

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored uploads
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "/app/uploads"
	}
	r.Static("/uploads", uploadDir)

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(directory))
			auth.POST("/login", handlers.Login(directory))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(directory))
				users.PUT("/profile", handlers.UpdateProfile(directory))
			}

			vehicles := protected.Group("/vehicles")
			{
				vehicles.POST("", middleware.RequireRole("admin"), handlers.AddVehicle(registry, hub))
				vehicles.GET("", middleware.RequireRole("admin"), handlers.GetAllVehicles(registry))
				vehicles.GET("/available", handlers.GetAvailableVehicles(registry))
				vehicles.GET("/mine", middleware.RequireRole("owner"), handlers.GetMyVehicles(registry))
				vehicles.GET("/:id/availability", handlers.GetVehicleAvailability(registry))
				vehicles.POST("/:id/photo", middleware.RequireRole("admin", "owner"), handlers.UploadVehiclePhoto(registry))
			}

			bookingRoutes := protected.Group("/bookings")
			{
				bookingRoutes.POST("", middleware.RequireRole("customer"), handlers.ReserveVehicle(coordinator, hub))
				bookingRoutes.GET("/mine", middleware.RequireRole("customer"), handlers.GetMyBookings(ledger))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
