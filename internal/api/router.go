package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/rohits-web03/reciperater/docs"
	"github.com/rohits-web03/reciperater/internal/api/handlers"
	"github.com/rohits-web03/reciperater/internal/api/middleware"
)

type Deps struct {
	Auth      *handlers.AuthHandler
	Meals     *handlers.MealHandler
	JWTSecret string
	Cors      cors.Options
	Logger    *slog.Logger
}

func SetupRouter(deps Deps) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(deps.Cors)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.Handle("/metrics", promhttp.Handler())
	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	authMux := http.NewServeMux()
	authMux.HandleFunc("/sign-up", deps.Auth.RegisterUser)
	authMux.HandleFunc("/login", deps.Auth.LoginUser)
	authMux.HandleFunc("/google/login", deps.Auth.HandleGoogleLogin)
	authMux.HandleFunc("/google/callback", deps.Auth.HandleGoogleCallback)

	mainMux.Handle("/api/v1/auth/",
		http.StripPrefix("/api/v1/auth", authMux),
	)

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()

	protectedMux.HandleFunc("GET /meals", deps.Meals.ListMeals)
	protectedMux.HandleFunc("POST /meals", deps.Meals.CreateMeal)
	protectedMux.HandleFunc("GET /meals/{id}", deps.Meals.GetMeal)
	protectedMux.HandleFunc("PUT /meals/{id}", deps.Meals.UpdateMeal)
	protectedMux.HandleFunc("DELETE /meals/{id}", deps.Meals.DeleteMeal)
	protectedMux.HandleFunc("GET /meals/{id}/photo", deps.Meals.MealPhoto)

	protectedMux.HandleFunc("POST /auth/logout", deps.Auth.Logout)

	mainMux.Handle("/api/v1/",
		http.StripPrefix(
			"/api/v1",
			middleware.AuthMiddleware(deps.JWTSecret)(protectedMux),
		),
	)

	deps.Logger.Info("router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Logger(deps.Logger)(handler)
	return handler
}
