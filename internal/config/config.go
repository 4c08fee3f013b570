package config

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	PublicBaseURL   string
	// Endpoint overrides the account-derived R2 endpoint, e.g. for MinIO.
	Endpoint string
}

type ImageConfig struct {
	ThumbnailScale   float64
	ThumbnailQuality int
	PhotoQuality     int
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// FrontendURL is where the OAuth callback sends the browser afterwards.
	FrontendURL string
}

type Config struct {
	DB_URL         string
	Port           string
	JWTSecret      string
	SessionTTL     time.Duration
	Environment    string
	LogLevel       string
	CorsConfig     cors.Options
	R2             R2Config
	Images         ImageConfig
	Google         GoogleConfig
	ArchivePath    string
	SessionFile    string
	CleanupTimeout time.Duration
}

var Envs = Load()

// Load reads ENV_FILE (default .env) into the environment and builds the
// configuration from it.
func Load() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No", envFile, "file found")
	}

	return Config{
		DB_URL:      getEnv("DB_URL", ""),
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "not-so-secret-now-is-it?"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 24*time.Hour),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		CorsConfig:  CorsConfig(),
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", ""),
			Region:          getEnv("R2_REGION", "auto"),
			PublicBaseURL:   getEnv("R2_PUBLIC_BASE_URL", ""),
			Endpoint:        getEnv("R2_ENDPOINT", ""),
		},
		Images: ImageConfig{
			ThumbnailScale:   getEnvFloat("THUMBNAIL_SCALE", 0.05),
			ThumbnailQuality: getEnvInt("THUMBNAIL_QUALITY", 100),
			PhotoQuality:     getEnvInt("PHOTO_QUALITY", 20),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		ArchivePath:    getEnv("ARCHIVE_PATH", defaultDataPath("meals")),
		SessionFile:    getEnv("SESSION_FILE", defaultDataPath("session")),
		CleanupTimeout: getEnvDuration("CLEANUP_TIMEOUT", 30*time.Second),
	}
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using %g", key, value, fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, value, fallback)
		return fallback
	}
	return d
}

// defaultDataPath places local client state under ~/.reciperater.
func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".reciperater", name)
	}
	return filepath.Join(home, ".reciperater", name)
}

func CorsConfig() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}
