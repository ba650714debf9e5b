package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Tenant    TenantConfig
	Intake    IntakeConfig
	OCR       OCRConfig
	Webhook   WebhookConfig
	SheetSync SheetSyncConfig
	Cron      CronConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TenantConfig names the institution that owns records when callers omit one.
type TenantConfig struct {
	DefaultID string
}

// IntakeConfig tunes the create path shared by every intake channel.
type IntakeConfig struct {
	AllocationAttempts int
	SchoolVariantsFile string
}

// OCRConfig points at the external text-recognition capability used for paper forms.
type OCRConfig struct {
	Endpoint       string
	APIKey         string
	Timeout        time.Duration
	MaxUploadBytes int64
	MaxDimension   int
}

// WebhookConfig secures the third-party form provider webhook.
type WebhookConfig struct {
	Secret        string
	CountryCode   string
	DefaultSource string
}

// SheetSyncConfig controls delivery to the downstream spreadsheet mirror.
type SheetSyncConfig struct {
	Enabled       bool
	URL           string
	Token         string
	Timeout       time.Duration
	Workers       int
	BufferSize    int
	SweepBatch    int
	SweepSchedule string
	FlagKey       string
}

// CronConfig guards the externally scheduled sweep trigger.
type CronConfig struct {
	Secret string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Tenant = TenantConfig{DefaultID: strings.TrimSpace(v.GetString("DEFAULT_TENANT_ID"))}
	if cfg.Tenant.DefaultID == "" {
		cfg.Tenant.DefaultID = "default"
	}

	cfg.Intake = IntakeConfig{
		AllocationAttempts: v.GetInt("INTAKE_ALLOCATION_ATTEMPTS"),
		SchoolVariantsFile: v.GetString("SCHOOL_VARIANTS_FILE"),
	}

	maxUpload := v.GetInt64("OCR_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 8 * 1024 * 1024
	}
	cfg.OCR = OCRConfig{
		Endpoint:       v.GetString("OCR_ENDPOINT"),
		APIKey:         v.GetString("OCR_API_KEY"),
		Timeout:        parseDuration(v.GetString("OCR_TIMEOUT"), 30*time.Second),
		MaxUploadBytes: maxUpload,
		MaxDimension:   v.GetInt("OCR_MAX_DIMENSION"),
	}

	cfg.Webhook = WebhookConfig{
		Secret:        v.GetString("WEBHOOK_SECRET"),
		CountryCode:   strings.TrimPrefix(strings.TrimSpace(v.GetString("WEBHOOK_COUNTRY_CODE")), "+"),
		DefaultSource: v.GetString("WEBHOOK_DEFAULT_SOURCE"),
	}

	cfg.SheetSync = SheetSyncConfig{
		Enabled:       v.GetBool("SHEET_SYNC_ENABLED"),
		URL:           v.GetString("SHEET_SYNC_URL"),
		Token:         v.GetString("SHEET_SYNC_TOKEN"),
		Timeout:       parseDuration(v.GetString("SHEET_SYNC_TIMEOUT"), 10*time.Second),
		Workers:       v.GetInt("SHEET_SYNC_WORKERS"),
		BufferSize:    v.GetInt("SHEET_SYNC_BUFFER"),
		SweepBatch:    v.GetInt("SHEET_SYNC_SWEEP_BATCH"),
		SweepSchedule: v.GetString("SHEET_SYNC_SWEEP_SCHEDULE"),
		FlagKey:       v.GetString("SHEET_SYNC_FLAG_KEY"),
	}

	cfg.Cron = CronConfig{Secret: v.GetString("CRON_SECRET")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "admissions")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DEFAULT_TENANT_ID", "default")
	v.SetDefault("INTAKE_ALLOCATION_ATTEMPTS", 5)
	v.SetDefault("SCHOOL_VARIANTS_FILE", "")

	v.SetDefault("OCR_ENDPOINT", "")
	v.SetDefault("OCR_API_KEY", "")
	v.SetDefault("OCR_TIMEOUT", "30s")
	v.SetDefault("OCR_MAX_UPLOAD_BYTES", 8*1024*1024)
	v.SetDefault("OCR_MAX_DIMENSION", 2000)

	v.SetDefault("WEBHOOK_SECRET", "")
	v.SetDefault("WEBHOOK_COUNTRY_CODE", "91")
	v.SetDefault("WEBHOOK_DEFAULT_SOURCE", "WhatsApp")

	v.SetDefault("SHEET_SYNC_ENABLED", false)
	v.SetDefault("SHEET_SYNC_URL", "")
	v.SetDefault("SHEET_SYNC_TOKEN", "")
	v.SetDefault("SHEET_SYNC_TIMEOUT", "10s")
	v.SetDefault("SHEET_SYNC_WORKERS", 2)
	v.SetDefault("SHEET_SYNC_BUFFER", 64)
	v.SetDefault("SHEET_SYNC_SWEEP_BATCH", 50)
	v.SetDefault("SHEET_SYNC_SWEEP_SCHEDULE", "@every 15m")
	v.SetDefault("SHEET_SYNC_FLAG_KEY", "feature:sheet_sync_enabled")

	v.SetDefault("CRON_SECRET", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// viper reports a missing explicit config file as a plain fs error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}
