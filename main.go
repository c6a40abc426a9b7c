package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/WesleyEliel/citefix-backend/controllers"
	"github.com/WesleyEliel/citefix-backend/database"
	"github.com/WesleyEliel/citefix-backend/lifecycle"
	"github.com/WesleyEliel/citefix-backend/models"
	"github.com/WesleyEliel/citefix-backend/routes"
	"github.com/WesleyEliel/citefix-backend/store"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(context.Background(), logger)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Disconnect(ctx)
	}()

	reportStore := store.NewMongoReports(db.Col("reports"))
	interventionStore := store.NewMongoInterventions(db.Col("interventions"))

	reportMgr := lifecycle.NewReportManager(reportStore, logger)
	interventionMgr := lifecycle.NewInterventionManager(interventionStore, logger)
	coordinator := lifecycle.NewCoordinator(reportMgr, interventionMgr, logger)

	// Notification dispatch is external; the subscriber here just records
	// the transitions the coordinator drives.
	coordinator.OnReportStatusChange(func(reportID primitive.ObjectID, oldStatus, newStatus models.ReportStatus) {
		logger.Info("report status changed",
			zap.String("report_id", reportID.Hex()),
			zap.String("old", string(oldStatus)),
			zap.String("new", string(newStatus)))
	})

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(requestid.New())

	// Log concise request lines
	app.Use(fiberlogger.New(fiberlogger.Config{
		TimeFormat: "15:04:05",
	}))

	// CORS (dev-friendly)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     getenv("CORS_ORIGINS", "http://localhost:3000, http://localhost:3001"),
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "*",
		AllowCredentials: false,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	// Health
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	// API
	h := controllers.NewHandlers(reportMgr, interventionMgr, coordinator, logger)
	routes.Register(app, h, jwtSecret)

	addr := ":" + getenv("PORT", "3005")
	logger.Info("API listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
