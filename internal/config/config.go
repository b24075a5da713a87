package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/random"
)

const (
	DefaultDarajaBaseURL = "https://sandbox.safaricom.co.ke"
	DefaultMpesaTimeout  = 30 * time.Second
)

// Config is read once at startup and passed down explicitly.
type Config struct {
	Port        string
	DatabaseURL string
	CORSOrigins []string

	Redis RedisConfig
	Minio MinioConfig
	Mpesa MpesaConfig
	Auth  AuthConfig

	PlanSeedFile string

	// Per-phone limit on STK push initiations.
	InitiateLimit  int
	InitiateWindow time.Duration

	// Zero disables the periodic reaper.
	ReaperInterval time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MinioConfig is optional; an empty Endpoint disables callback archiving.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type MpesaConfig struct {
	BaseURL          string
	ConsumerKey      string
	ConsumerSecret   string
	ShortCode        string
	Passkey          string
	CallbackURL      string
	AccountReference string
	Timeout          time.Duration
	// Outbound Daraja calls per second.
	RequestsPerSecond float64
}

type AuthConfig struct {
	JWTSecret string
	JWKSURL   string
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: .env file not found, using process environment")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			Bucket:    getEnv("MINIO_CALLBACK_BUCKET", "mpesa-callbacks"),
		},
		Mpesa: MpesaConfig{
			BaseURL:           strings.TrimSuffix(getEnv("MPESA_BASE_URL", DefaultDarajaBaseURL), "/"),
			ConsumerKey:       os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret:    os.Getenv("MPESA_CONSUMER_SECRET"),
			ShortCode:         os.Getenv("MPESA_EXPRESS_SHORTCODE"),
			Passkey:           os.Getenv("MPESA_PASSKEY"),
			CallbackURL:       os.Getenv("MPESA_CALLBACK_URL"),
			AccountReference:  getEnv("MPESA_ACCOUNT_REFERENCE", "SAMNET"),
			Timeout:           getEnvDuration("MPESA_TIMEOUT", DefaultMpesaTimeout),
			RequestsPerSecond: getEnvFloat("MPESA_RATE_LIMIT", 5),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			JWKSURL:   os.Getenv("JWKS_URL"),
		},
		PlanSeedFile:   os.Getenv("PLAN_SEED_FILE"),
		InitiateLimit:  getEnvInt("INITIATE_RATE_LIMIT", 3),
		InitiateWindow: getEnvDuration("INITIATE_RATE_WINDOW", time.Minute),
		ReaperInterval: getEnvDuration("REAPER_INTERVAL", time.Minute),
	}

	if cfg.Auth.JWTSecret == "" && cfg.Auth.JWKSURL == "" {
		log.Printf("WARN: JWT_SECRET not set, generating a random secret for development")
		cfg.Auth.JWTSecret = random.String(32)
	}

	return cfg
}

// Validate reports settings without which the service cannot take payments.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Mpesa.ConsumerKey == "" || c.Mpesa.ConsumerSecret == "" {
		errs = append(errs, errors.New("MPESA_CONSUMER_KEY and MPESA_CONSUMER_SECRET are required"))
	}
	if c.Mpesa.ShortCode == "" || c.Mpesa.Passkey == "" {
		errs = append(errs, errors.New("MPESA_EXPRESS_SHORTCODE and MPESA_PASSKEY are required"))
	}
	if c.Mpesa.CallbackURL == "" {
		errs = append(errs, errors.New("MPESA_CALLBACK_URL is required"))
	}
	if c.Mpesa.Timeout <= 0 {
		errs = append(errs, errors.New("MPESA_TIMEOUT must be positive"))
	}
	if c.InitiateLimit <= 0 {
		errs = append(errs, errors.New("INITIATE_RATE_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("WARN: invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("WARN: invalid %s=%q, using %v", key, raw, fallback)
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("WARN: invalid %s=%q, using %t", key, raw, fallback)
		return fallback
	}
	return v
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("WARN: invalid %s=%q, using %s", key, raw, fallback)
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
