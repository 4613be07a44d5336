package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kwick/backend/internal/config"
	"github.com/kwick/backend/internal/database"
	"github.com/kwick/backend/internal/handlers"
	"github.com/kwick/backend/internal/middleware"
	"github.com/kwick/backend/internal/notify"
	"github.com/kwick/backend/internal/routes"
	"github.com/kwick/backend/internal/services/kyc"
	"github.com/kwick/backend/internal/services/mailer"
	"github.com/kwick/backend/internal/services/render"
	"github.com/kwick/backend/internal/storage"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	blobs, err := storage.NewLocalStore(cfg.Uploads.BaseDir)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	hub := notify.NewHub()
	go hub.Run()

	kycService := kyc.NewService(
		db,
		blobs,
		render.NewPDFRenderer(),
		mailer.NewSMTPMailer(cfg.SMTP),
		notify.NewPublisher(hub),
	)

	kycHandler := handlers.NewKYCHandler(kycService)
	adminHandler := handlers.NewAdminKYCHandler(kycService)
	rateLimiter := middleware.NewRateLimiter(20, 40)

	router := routes.SetupRouter(kycHandler, adminHandler, hub, rateLimiter)

	srv := startServer(router, cfg.Server)

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	hub.Stop()
	rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// startServer starts the HTTP server
func startServer(router http.Handler, cfg config.ServerConfig) *http.Server {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Port)
	return srv
}
