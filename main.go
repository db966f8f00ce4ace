package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}

	// Report which optional integrations are configured
	optionalEnvVars := []string{
		"SUPABASE_URL",
		"SUPABASE_KEY",
		"VERCEL_ENV",
		"GITHUB_TOKEN",
		"DATA_DIR",
		"SECRET_KEY",
		"PORT",
	}

	log.Println("Environment variables:")
	for _, envVar := range optionalEnvVars {
		if os.Getenv(envVar) == "" {
			log.Printf("%s: not set", envVar)
		} else {
			log.Printf("%s: set", envVar)
		}
	}

	utils.InitValidator()
}

func openStore(cfg *config.Config) (repository.NoteStore, error) {
	switch cfg.Backend {
	case config.BackendSupabase:
		return repository.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StoreTimeout), nil
	default:
		return repository.NewSQLiteStore(cfg.SQLiteDSN)
	}
}

func setupRouter(cfg *config.Config, store repository.NoteStore, llm *services.LLMService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestSizeLimiter(cfg.MaxBodyBytes))

	notesService := &usecase.NoteService{Store: store}
	notesHandler := handler.NewNoteHandler(notesService)
	llmHandler := handler.NewLLMHandler(notesService, llm)
	healthHandler := handler.NewHealthHandler(store, llm)

	api := router.Group("/api")
	{
		notes := api.Group("/notes")
		{
			notes.GET("", notesHandler.List)
			notes.POST("", notesHandler.Create)
			notes.GET("/search", notesHandler.Search)
			notes.POST("/reorder", notesHandler.Reorder)
			notes.POST("/generate", llmHandler.Generate)
			notes.GET("/:id", notesHandler.Get)
			notes.PUT("/:id", notesHandler.Update)
			notes.DELETE("/:id", notesHandler.Delete)
			notes.POST("/:id/translate", llmHandler.Translate)
		}

		api.GET("/health", healthHandler.Status)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func main() {
	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open note store: %v", err)
	}
	defer store.Close()
	log.Printf("Using %s note store", store.Name())

	llm := services.NewLLMService(cfg.LLM)
	if !llm.Enabled() {
		log.Printf("GITHUB_TOKEN not set; translation and generation disabled")
	}

	router := setupRouter(cfg, store, llm)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	sig := <-signalChan
	log.Printf("Caught signal %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Printf("Server shutdown complete")
}
