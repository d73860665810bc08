package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	Timezone      string
	DatabaseURL   string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	UploadsBucket       string
	UploadsDir          string
	UploadsPublicURL    string

	GeminiAPIKey string
	GeminiModel  string

	// Appointments
	AppointmentsSourceURL     string
	AppointmentsSourceToken   string
	AppointmentsSourceTimeout time.Duration
	AppointmentsRefreshCron   string
	AppointmentsStrictDates   bool

	// Preferences
	PreferencesBackend string
	PreferencesFile    string
	ClinicID           string

	CORSAllowedOrigins []string
	AdminJWTSecret     string
	DebugEndpoints     bool
	RateLimitRPS       float64
	RateLimitBurst     int
	ShutdownTimeout    time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Timezone:      getEnv("TIMEZONE", "Asia/Tokyo"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "ap-northeast-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		UploadsBucket:       getEnv("UPLOADS_BUCKET", ""),
		UploadsDir:          getEnv("UPLOADS_DIR", "uploads"),
		UploadsPublicURL:    getEnv("UPLOADS_PUBLIC_URL", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		AppointmentsSourceURL:     getEnv("APPOINTMENTS_SOURCE_URL", ""),
		AppointmentsSourceToken:   getEnv("APPOINTMENTS_SOURCE_TOKEN", ""),
		AppointmentsSourceTimeout: getEnvAsDuration("APPOINTMENTS_SOURCE_TIMEOUT", 30*time.Second),
		AppointmentsRefreshCron:   getEnv("APPOINTMENTS_REFRESH_SCHEDULE", "@every 5m"),
		AppointmentsStrictDates:   getEnvAsBool("APPOINTMENTS_STRICT_DATES", false),

		PreferencesBackend: strings.ToLower(strings.TrimSpace(getEnv("PREFERENCES_BACKEND", "file"))),
		PreferencesFile:    getEnv("PREFERENCES_FILE", "data/preferences.yaml"),
		ClinicID:           getEnv("CLINIC_ID", "default"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		DebugEndpoints:     getEnvAsBool("DEBUG_ENDPOINTS", false),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 40),
		ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// Location returns the clinic time zone, falling back to UTC when the name
// is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
