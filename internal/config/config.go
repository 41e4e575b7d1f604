package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	BooksFile       string
	UsersFile       string
	StaticDir       string
	TokenSecret     string
	SortLocale      string
	DefaultPageSize int
	HashPasswords   bool
	RateLimit       float64
	RateBurst       int
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found, using environment and defaults")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() Config {
	dataDir := getEnv("DATA_DIR", "data")

	return Config{
		Port:            getEnv("PORT", "8080"),
		BooksFile:       getEnv("BOOKS_FILE", filepath.Join(dataDir, "books.xml")),
		UsersFile:       getEnv("USERS_FILE", filepath.Join(dataDir, "users.json")),
		StaticDir:       getEnv("STATIC_DIR", "public"),
		TokenSecret:     os.Getenv("TOKEN_SECRET"),
		SortLocale:      getEnv("SORT_LOCALE", "zh"),
		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 5),
		HashPasswords:   getEnvBool("PASSWORD_HASHING", false),
		RateLimit:       getEnvFloat("RATE_LIMIT", 0),
		RateBurst:       getEnvInt("RATE_BURST", 20),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
