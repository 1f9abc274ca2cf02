package main

import (
	"alcyxob/ai-coach/internal/api"
	"alcyxob/ai-coach/internal/config"
	"alcyxob/ai-coach/internal/llm"
	"alcyxob/ai-coach/internal/planner"
	"alcyxob/ai-coach/internal/repository/mongo"
	"alcyxob/ai-coach/internal/service"
	"alcyxob/ai-coach/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title AI Coach API
// @version 1.0
// @description API for AI-assisted personalized workout plan generation.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting AI Coach Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureProfileIndexes(ctx, appDB.Collection("fitness_profiles"), appDB.Collection("nutrition_goals"))
		mongo.EnsureWorkoutSessionIndexes(ctx, appDB.Collection("workout_sessions"))
		mongo.EnsurePlanJobIndexes(ctx, appDB.Collection("plan_generation_jobs"))
		mongo.EnsurePersonalizedPlanIndexes(ctx, appDB.Collection("personalized_plan_days"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	// Plan archiving is optional; without a bucket the service runs fine.
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		log.Println("Initializing plan archive storage...")
		fileStorage, err = storage.NewS3Storage(cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("No S3 bucket configured, plan archiving disabled.")
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	profileRepo := mongo.NewMongoFitnessProfileRepository(appDB)
	goalsRepo := mongo.NewMongoNutritionGoalsRepository(appDB)
	sessionRepo := mongo.NewMongoWorkoutSessionRepository(appDB)
	jobRepo := mongo.NewMongoPlanJobRepository(appDB)
	planRepo := mongo.NewMongoPersonalizedPlanRepository(appDB)

	// --- Initialize LLM + Generator ---
	log.Printf("Using LLM model %s at %s", cfg.LLM.Model, cfg.LLM.BaseURL)
	chatClient := llm.NewOpenAIClient(cfg.LLM)
	dayGenerator := planner.NewDayGenerator(chatClient)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	jobService := service.NewPlanJobService(jobRepo, planRepo, userRepo, profileRepo, goalsRepo, sessionRepo, dayGenerator, fileStorage)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, jobService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// In-flight requests get 5 seconds to finish
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
