package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohits-web03/reciperater/internal/api"
	"github.com/rohits-web03/reciperater/internal/api/handlers"
	"github.com/rohits-web03/reciperater/internal/api/services"
	"github.com/rohits-web03/reciperater/internal/config"
	"github.com/rohits-web03/reciperater/internal/imaging"
	"github.com/rohits-web03/reciperater/internal/logger"
	"github.com/rohits-web03/reciperater/internal/mealsync"
	"github.com/rohits-web03/reciperater/internal/repositories"
)

func main() {
	cfg := config.Envs
	log := logger.New(cfg.Environment, cfg.LogLevel)

	db, err := repositories.ConnectDatabase(cfg.DB_URL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	blobs, err := repositories.NewR2BlobStore(cfg.R2)
	if err != nil {
		log.Error("failed to configure R2", "error", err)
		os.Exit(1)
	}

	meals := repositories.NewMealStore(db)
	images := imaging.NewProcessor(cfg.Images.ThumbnailScale, cfg.Images.ThumbnailQuality, cfg.Images.PhotoQuality)
	base := mealsync.New(meals, blobs, images, "",
		mealsync.WithLogger(log),
		mealsync.WithCleanupTimeout(cfg.CleanupTimeout),
	)

	production := cfg.Environment == "production"
	handler := api.SetupRouter(api.Deps{
		Auth: &handlers.AuthHandler{
			Accounts:    services.NewAccountService(db),
			JWTSecret:   cfg.JWTSecret,
			SessionTTL:  cfg.SessionTTL,
			Production:  production,
			Google:      services.NewGoogleOAuthConfig(cfg.Google),
			FrontendURL: cfg.Google.FrontendURL,
			Logger:      log,
		},
		Meals: &handlers.MealHandler{
			Syncer: func(owner string) *mealsync.Syncer {
				return base.ForOwner(owner, meals.ForOwner(owner))
			},
			Photos: blobs,
			Logger: log,
		},
		JWTSecret: cfg.JWTSecret,
		Cors:      cfg.CorsConfig,
		Logger:    log,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: handler,
		// Photo uploads need a longer read window than plain JSON.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("starting RecipeRater server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	base.Wait()
	log.Info("photo cleanups finished")
}
