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

	"github.com/spf13/afero"

	"github.com/cardlens/backend/config"
	httpDelivery "github.com/cardlens/backend/internal/delivery/http"
	"github.com/cardlens/backend/internal/domain"
	"github.com/cardlens/backend/internal/infrastructure/contacts"
	"github.com/cardlens/backend/internal/infrastructure/enhance"
	"github.com/cardlens/backend/internal/infrastructure/imagestore"
	"github.com/cardlens/backend/internal/infrastructure/staging"
	"github.com/cardlens/backend/internal/infrastructure/tesseract"
	"github.com/cardlens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting CardLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("OCR: languages=%v pool=%d dpi=%d", cfg.OCR.Languages, cfg.OCR.PoolSize, cfg.OCR.DPI)

	debug := cfg.Server.Environment == "development"

	// Recognition pipeline
	enhancer := enhance.NewEnhancer(cfg.Enhance.MaxDimension, cfg.Enhance.BinarizeThreshold)
	pool := tesseract.NewPool(cfg.OCR.PoolSize, func() (domain.RecognitionEngine, error) {
		return tesseract.NewEngine(tesseract.Config{
			Languages: cfg.OCR.Languages,
			DPI:       cfg.OCR.DPI,
		})
	})
	selector := usecase.NewResultSelector(enhancer, pool, debug)
	extractor := usecase.NewFieldExtractor()

	// Staging store for pending scans
	var scanRepo domain.ScanRepository
	switch cfg.Staging.Type {
	case "redis":
		store, err := staging.NewRedisStore(cfg.Staging.RedisURL, cfg.Staging.TTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer store.Close()
		scanRepo = store
		log.Printf("Staging: redis, ttl=%s", cfg.Staging.TTL)
	default:
		scanRepo = staging.NewMemoryStore(cfg.Staging.TTL)
		log.Printf("Staging: memory, ttl=%s", cfg.Staging.TTL)
	}

	// Permanent contact repository
	var contactRepo domain.ContactRepository
	switch cfg.Contacts.Type {
	case "postgres":
		store, err := contacts.NewPostgresStore(cfg.Contacts.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer store.Close()
		contactRepo = store
		log.Printf("Contacts: postgres")
	default:
		contactRepo = contacts.NewMemoryStore()
		log.Printf("Contacts: memory")
	}

	// Image store for original and thumbnail tiers
	imageStore := imagestore.NewFilesystemStore(afero.NewOsFs(), cfg.Storage.BaseDir, cfg.Storage.BaseURL)
	log.Printf("Images: %s served under %s", cfg.Storage.BaseDir, cfg.Storage.BaseURL)

	// Usecase layer
	scanService := usecase.NewScanService(
		selector,
		extractor,
		scanRepo,
		contactRepo,
		imageStore,
		usecase.ScanServiceConfig{
			ScanTTL:         cfg.Staging.TTL,
			ThumbnailMaxDim: cfg.Storage.ThumbnailMaxDim,
			Debug:           debug,
		},
	)

	// HTTP delivery
	handler := httpDelivery.NewHandler(scanService, cfg.Server.MaxUploadBytes)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal, then drain in-flight requests and release
	// the OCR engines
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	pool.Shutdown()
	log.Printf("Bye")
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
