// ============================================================================
// backend/internal/shared/config.go
// Process configuration and environment variable helpers
// ============================================================================

package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"schooladmin/backend/internal/logger"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// ServiceConfig holds the configuration of the API process
type ServiceConfig struct {
	ServiceName    string
	HTTPPort       string
	HealthGRPCPort string // empty disables the gRPC health server
	Environment    string // development, staging, production
	LogLevel       string // debug, info, warn, error
	StoreDriver    string // mongo, memory

	MongoDB  MongoConfig
	Security SecurityConfig
	Mail     MailConfig
	CORS     CORSConfig
}

// SecurityConfig holds token, password and OTP settings
type SecurityConfig struct {
	JWTSecret            string
	JWTIssuer            string
	JWTExpirationHours   int
	StaffTokenTTL        time.Duration
	BCryptCost           int
	OTPTTL               time.Duration
	AdminRegistrationKey string
}

// MailConfig holds notifier settings
type MailConfig struct {
	Provider       string // sendgrid, console
	SendgridAPIKey string
	FromEmail      string
	FromName       string
	AdminEmail     string
	SupportEmail   string
	SupportPhone   string
	AppURL         string
	SchoolName     string
	MaxAttempts    int
	SendTimeout    time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

// IsDevelopment reports whether the process runs with development defaults
func (c *ServiceConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from an .env file. A missing file is not fatal.
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Str("file", envFile).Msg("env file not found, using system environment variables")
		return err
	}

	logger.Info().Str("file", envFile).Msg("loaded environment")
	return nil
}

// LoadServiceConfig reads the configuration from the environment
func LoadServiceConfig(serviceName string) (*ServiceConfig, error) {
	config := &ServiceConfig{
		ServiceName:    serviceName,
		HTTPPort:       GetEnv("HTTP_PORT", DefaultHTTPPort),
		HealthGRPCPort: os.Getenv("HEALTH_GRPC_PORT"),
		Environment:    GetEnv("ENVIRONMENT", "development"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		StoreDriver:    GetEnv("STORE_DRIVER", StoreDriverMongo),
	}
	if _, set := os.LookupEnv("HEALTH_GRPC_PORT"); !set {
		config.HealthGRPCPort = DefaultHealthGRPCPort
	}

	config.MongoDB = MongoConfig{
		URI:            GetEnv("MONGO_URI", ""),
		Database:       GetEnv("MONGO_DB_NAME", "school_admin"),
		ConnectTimeout: GetDurationEnv("MONGO_CONNECT_TIMEOUT", 20*time.Second),
		MaxPoolSize:    uint64(GetIntEnv("MONGO_MAX_POOL_SIZE", 50)),
		MinPoolSize:    uint64(GetIntEnv("MONGO_MIN_POOL_SIZE", 5)),
		MaxIdleTime:    GetDurationEnv("MONGO_MAX_IDLE_TIME", 30*time.Second),
	}

	config.Security = SecurityConfig{
		JWTSecret:            GetEnv("JWT_SECRET", ""),
		JWTIssuer:            GetEnv("JWT_ISSUER", "school-admin"),
		JWTExpirationHours:   GetIntEnv("JWT_EXPIRATION_HOURS", 24),
		StaffTokenTTL:        GetDurationEnv("STAFF_TOKEN_TTL", 8*time.Hour),
		BCryptCost:           GetIntEnv("BCRYPT_COST", 10),
		OTPTTL:               GetDurationEnv("OTP_TTL", 10*time.Minute),
		AdminRegistrationKey: GetEnv("ADMIN_REGISTRATION_KEY", ""),
	}

	config.Mail = MailConfig{
		Provider:       GetEnv("MAIL_PROVIDER", MailProviderConsole),
		SendgridAPIKey: GetEnv("SENDGRID_API_KEY", ""),
		FromEmail:      GetEnv("MAIL_FROM_EMAIL", "no-reply@school.local"),
		FromName:       GetEnv("MAIL_FROM_NAME", "School Administration"),
		AdminEmail:     GetEnv("ADMIN_EMAIL", ""),
		SupportEmail:   GetEnv("SUPPORT_EMAIL", "support@school.local"),
		SupportPhone:   GetEnv("SUPPORT_PHONE", ""),
		AppURL:         GetEnv("APP_URL", "http://localhost:5173"),
		SchoolName:     GetEnv("SCHOOL_NAME", "School Management System"),
		MaxAttempts:    GetIntEnv("MAIL_MAX_ATTEMPTS", 3),
		SendTimeout:    GetDurationEnv("MAIL_SEND_TIMEOUT", 15*time.Second),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AllowedMethods:   GetStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		AllowedHeaders:   GetStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}),
		AllowCredentials: GetBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           GetIntEnv("CORS_MAX_AGE", 300),
	}

	if err := ValidateServiceConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ============================================================================
// Environment Variable Helper Functions
// ============================================================================

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment variable or returns a default value
func GetIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).Msg("invalid integer in environment")
		return defaultValue
	}
	return value
}

// GetBoolEnv retrieves a boolean environment variable or returns a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", valueStr).Bool("default", defaultValue).Msg("invalid boolean in environment")
		return defaultValue
	}
	return value
}

// GetDurationEnv retrieves a duration ("30s", "5m", "1h") or returns a default value
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", valueStr).Dur("default", defaultValue).Msg("invalid duration in environment")
		return defaultValue
	}
	return value
}

// GetStringSliceEnv retrieves a comma-separated list or returns a default value
func GetStringSliceEnv(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// ============================================================================
// Configuration Validation
// ============================================================================

// ValidateServiceConfig validates service configuration
func ValidateServiceConfig(config *ServiceConfig) error {
	if config.HTTPPort == "" {
		return fmt.Errorf("HTTP port is required")
	}

	switch config.StoreDriver {
	case StoreDriverMongo:
		if config.MongoDB.URI == "" {
			return fmt.Errorf("MONGO_URI environment variable is required")
		}
		if config.MongoDB.Database == "" {
			return fmt.Errorf("MongoDB database name is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", config.StoreDriver)
	}

	if config.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if config.Security.BCryptCost < 4 || config.Security.BCryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	switch config.Mail.Provider {
	case MailProviderConsole:
	case MailProviderSendgrid:
		if config.Mail.SendgridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when MAIL_PROVIDER=sendgrid")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", config.Mail.Provider)
	}

	return nil
}

// ============================================================================
// Configuration Display (for debugging)
// ============================================================================

// PrintConfig logs a sanitized summary of the configuration
func PrintConfig(config *ServiceConfig) {
	logger.Info().
		Str("service", config.ServiceName).
		Str("http_port", config.HTTPPort).
		Str("health_grpc_port", config.HealthGRPCPort).
		Str("environment", config.Environment).
		Str("log_level", config.LogLevel).
		Str("store", config.StoreDriver).
		Str("mongo_db", config.MongoDB.Database).
		Uint64("mongo_max_pool", config.MongoDB.MaxPoolSize).
		Int("jwt_expiration_hours", config.Security.JWTExpirationHours).
		Dur("otp_ttl", config.Security.OTPTTL).
		Int("bcrypt_cost", config.Security.BCryptCost).
		Str("mail_provider", config.Mail.Provider).
		Strs("cors_origins", config.CORS.AllowedOrigins).
		Msg("configuration loaded")
}

// ============================================================================
// Defaults
// ============================================================================

const (
	DefaultHTTPPort       = "8080"
	DefaultHealthGRPCPort = "50051"

	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"

	MailProviderConsole  = "console"
	MailProviderSendgrid = "sendgrid"
)
