package main

import (
	"context"
	"log"
	"os"

	api "fiwb-backend/cmd/api"
	authdomain "fiwb-backend/internal/auth/domain"
	authRepo "fiwb-backend/internal/auth/repository"
	authUsecase "fiwb-backend/internal/auth/usecase"
	"fiwb-backend/internal/sync/adapter"
	syncDelivery "fiwb-backend/internal/sync/delivery"
	syncdomain "fiwb-backend/internal/sync/domain"
	syncRepo "fiwb-backend/internal/sync/repository"
	"fiwb-backend/internal/sync/scheduler"
	syncUsecase "fiwb-backend/internal/sync/usecase"
	"fiwb-backend/pkg/ai"
	"fiwb-backend/pkg/chroma"
	"fiwb-backend/pkg/classroom"
	"fiwb-backend/pkg/config"
	"fiwb-backend/pkg/database"
	"fiwb-backend/pkg/drive"
	"fiwb-backend/pkg/gmail"
	"fiwb-backend/pkg/governor"
	"fiwb-backend/pkg/imap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.RefreshToken{}, &syncdomain.Course{}, &syncdomain.UserCourse{}, &syncdomain.Material{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	courseRepo := syncRepo.NewCourseRepository(db)
	materialRepo := syncRepo.NewMaterialRepository(db)

	// One governor owns every remote-facing limit in the process.
	gov := governor.New(cfg.DeepSyncLimit, cfg.APICallLimit)

	// Google API transports
	classroomService := classroom.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	driveService := drive.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	imapService := imap.NewService()

	// AI triage for inbox classification
	triageService, err := ai.NewTriageService(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiApiKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.Printf("Warning: AI triage unavailable, inbox items will be stored unclassified: %v", err)
	}

	// Remote vector index
	chromaClient, err := chroma.NewChromaClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Chroma client:", err)
	}
	indexer := syncUsecase.NewIndexer(chromaClient, userRepo, 3)
	indexer.Start()

	// Source adapters
	adapters := []syncdomain.Adapter{
		adapter.NewClassroomAdapter(classroomService, gov, userRepo),
		adapter.NewMoodleAdapter(gov),
		adapter.NewDriveAdapter(driveService, gov, userRepo),
		adapter.NewMailboxAdapter(gmailService, imapService, triageService, gov, userRepo, cfg.EncryptionKey),
	}

	coordinator := syncUsecase.NewCoordinator(adapters, courseRepo, materialRepo, userRepo, gov, indexer)
	syncUc := syncUsecase.NewSyncUsecase(coordinator, userRepo, courseRepo, materialRepo, chromaClient, gov)

	// Auth usecase with login-triggered sync
	authUc := authUsecase.NewAuthUsecase(userRepo, cfg)
	authUc.SetSyncCallback(func(user *authdomain.User) {
		go func() {
			if err := coordinator.SyncUser(context.Background(), user); err != nil {
				log.Printf("Login-triggered sync failed for %s: %v", user.Email, err)
			}
		}()
	})

	// Global safety-net loop
	sched := scheduler.New(userRepo, coordinator, cfg.SyncGracePeriod, cfg.SyncInterval)
	sched.Start()

	// HTTP surface
	syncHandler := syncDelivery.NewSyncHandler(syncUc, userRepo, driveService, gov, cfg.EncryptionKey)
	handler := api.NewHandler(authUc, syncHandler, cfg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	log.Printf("Server starting on port %s", port)
	if err := handler.Start(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
