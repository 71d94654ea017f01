package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	// Endpoint overrides the R2 account endpoint, e.g. for AWS S3 or a local gateway.
	Endpoint string
}

type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

type Config struct {
	Port          string
	Environment   string
	LogLevel      string
	AppName       string
	DBDriver      string
	DBURL         string
	JWTSecret     string
	PublicBaseURL string
	APIBaseURL    string
	FrontendURL   string

	StorageDriver string
	R2            R2Config
	Minio         MinioConfig

	PresignTTL       time.Duration
	MaxUploadSize    int64
	BcryptCost       int
	AccessCodeLength int
	NATSURL          string
	JanitorInterval  time.Duration

	Google     GoogleConfig
	CorsConfig cors.Options
}

const devJWTSecret = "not-so-secret-now-is-it?"

// Load reads ENV_FILE (default .env) into the environment and builds a Config
// from environment variables, falling back to defaults.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Debug().Str("file", envFile).Msg("no env file found")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:          v.GetString("PORT"),
		Environment:   v.GetString("ENV"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		AppName:       v.GetString("APP_NAME"),
		DBDriver:      v.GetString("DB_DRIVER"),
		DBURL:         v.GetString("DB_URL"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		APIBaseURL:    strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		FrontendURL:   strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		StorageDriver: v.GetString("STORAGE_DRIVER"),
		R2: R2Config{
			AccountID:       v.GetString("R2_ACCOUNT_ID"),
			AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("R2_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("R2_BUCKET_NAME"),
			Region:          v.GetString("R2_REGION"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
		},
		Minio: MinioConfig{
			Endpoint:   v.GetString("MINIO_ENDPOINT"),
			AccessKey:  v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:  v.GetString("MINIO_SECRET_KEY"),
			BucketName: v.GetString("MINIO_BUCKET"),
			UseSSL:     v.GetBool("MINIO_USE_SSL"),
		},
		PresignTTL:       v.GetDuration("PRESIGN_TTL"),
		MaxUploadSize:    v.GetInt64("MAX_UPLOAD_SIZE"),
		BcryptCost:       v.GetInt("BCRYPT_COST"),
		AccessCodeLength: v.GetInt("ACCESS_CODE_LENGTH"),
		NATSURL:          v.GetString("NATS_URL"),
		JanitorInterval:  v.GetDuration("JANITOR_INTERVAL"),
		Google: GoogleConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		},
	}
	cfg.CorsConfig = CorsConfig(splitList(v.GetString("CORS_ORIGINS")))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_NAME", "Sharegate")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_URL", "")
	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:5173")
	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("STORAGE_DRIVER", "s3")
	v.SetDefault("R2_REGION", "auto")
	v.SetDefault("MINIO_BUCKET", "shares")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("PRESIGN_TTL", "15m")
	v.SetDefault("MAX_UPLOAD_SIZE", int64(100<<20))
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("ACCESS_CODE_LENGTH", 6)
	v.SetDefault("NATS_URL", "")
	v.SetDefault("JANITOR_INTERVAL", "1h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate rejects settings that would weaken the share gate or break startup.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.PresignTTL <= 0 || c.PresignTTL > time.Hour {
		return fmt.Errorf("PRESIGN_TTL must be within (0, 1h], got %s", c.PresignTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.AccessCodeLength < 4 || c.AccessCodeLength > 16 {
		return fmt.Errorf("ACCESS_CODE_LENGTH must be within [4, 16], got %d", c.AccessCodeLength)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.MaxUploadSize)
	}
	switch c.StorageDriver {
	case "s3", "minio":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

func CorsConfig(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
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
