package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Storage  StorageConfig
	Upload   UploadConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxIdleConns int
	MaxOpenConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

const (
	StorageModeLocal = "local"
	StorageModeS3    = "s3"
)

// StorageConfig selects and configures the media byte store.
// Mode is "local" or "s3".
type StorageConfig struct {
	Mode      string
	LocalPath string
	S3        S3Config
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

// UploadConfig bounds listing media uploads.
type UploadConfig struct {
	MaxFilesPerListing int
	MaxBytesPerFile    int64
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "genbyt"),
			Password: getEnv("DB_PASSWORD", "genbyt"),
			DBName:   getEnv("DB_NAME", "genbyt"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			// Catalog reads dominate the workload, so the pool is
			// tunable per deployment instead of fixed.
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 50),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "change-me"),
			AccessTokenExpiry: parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m")),
		},
		CORS: CORSConfig{
			AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		},
		Storage: StorageConfig{
			Mode:      getEnv("STORAGE_MODE", "local"),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "uploads/listing_media"),
			S3: S3Config{
				Region:          getEnv("S3_REGION", "eu-north-1"),
				Bucket:          getEnv("S3_BUCKET", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				BaseURL:         getEnv("S3_BASE_URL", ""),
			},
		},
		Upload: UploadConfig{
			MaxFilesPerListing: getEnvInt("UPLOAD_MAX_FILES", 10),
			MaxBytesPerFile:    int64(getEnvInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
		},
	}

	if config.Storage.Mode != StorageModeLocal && config.Storage.Mode != StorageModeS3 {
		return nil, fmt.Errorf("invalid STORAGE_MODE %q: must be \"local\" or \"s3\"", config.Storage.Mode)
	}
	if config.Storage.Mode == StorageModeS3 && config.Storage.S3.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_MODE=s3")
	}

	return config, nil
}

// DSN returns the Postgres connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Invalid integer for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		log.Printf("Invalid boolean for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration %q, using 15m", value)
		return 15 * time.Minute
	}
	return d
}
