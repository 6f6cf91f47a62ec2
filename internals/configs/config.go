package configs

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	JWTSecret string
)

// Config dibaca dari ENV (setelah .env dimuat). Default mengikuti deployment staging.
type Config struct {
	AppEnv string `env:"APP_ENV,default=development"`
	Port   string `env:"PORT,default=3000"`

	CorsOrigins string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	// CIDR/IP load balancer, dipisah koma. Kosong = X-Forwarded-For diabaikan.
	TrustedProxies string `env:"TRUSTED_PROXIES"`

	JWTSecret string `env:"JWT_SECRET"`

	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBHost     string `env:"DB_HOST,default=localhost"`
	DBPort     string `env:"DB_PORT,default=5432"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE,default=require"`

	RedisURL string `env:"REDIS_URL"`

	// Attendance / geofence
	Timezone          string        `env:"ATTENDANCE_TIMEZONE,default=Asia/Kolkata"`
	NGORadiusKm       float64       `env:"GEOFENCE_NGO_RADIUS_KM,default=1"`
	CommunityRadiusKm float64       `env:"GEOFENCE_COMMUNITY_RADIUS_KM,default=0.5"`
	MaxFixAge         time.Duration `env:"ATTENDANCE_MAX_FIX_AGE,default=30m"`
	MaxPhotoBytes     int64         `env:"ATTENDANCE_MAX_PHOTO_BYTES,default=5242880"`
	PhotoDir          string        `env:"PHOTO_STORAGE_DIR,default=./uploads/attendance"`
	PhotoPublicPrefix string        `env:"PHOTO_PUBLIC_PREFIX,default=/uploads/attendance"`

	// Reverse geocoding
	GeocoderBaseURL   string        `env:"GEOCODER_BASE_URL,default=https://nominatim.openstreetmap.org"`
	GeocoderTimeout   time.Duration `env:"GEOCODER_TIMEOUT,default=8s"`
	GeocoderUserAgent string        `env:"GEOCODER_USER_AGENT,default=ecoguard-backend/1.0"`

	// Photo authenticity
	OracleMode    string        `env:"ORACLE_MODE,default=gemini"`
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL,default=gemini-2.0-flash"`
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT,default=20s"`

	// Token mint
	MintEnabled       bool          `env:"TOKEN_MINT_ENABLED,default=false"`
	MintBaseURL       string        `env:"TOKEN_MINT_BASE_URL"`
	MintTimeout       time.Duration `env:"TOKEN_MINT_TIMEOUT,default=30s"`
	MintRatePerSecond float64       `env:"TOKEN_MINT_RATE_PER_SECOND,default=5"`
	MintWorkers       int           `env:"TOKEN_MINT_WORKERS,default=4"`
	MintQueueSize     int           `env:"TOKEN_MINT_QUEUE_SIZE,default=256"`
	MintMaxAttempts   int           `env:"TOKEN_MINT_MAX_ATTEMPTS,default=5"`
	MintRetryGrace    time.Duration `env:"TOKEN_MINT_RETRY_GRACE,default=10m"`
	MintReconcileSpec string        `env:"TOKEN_MINT_RECONCILE_SPEC,default=@every 5m"`
	MintLease         time.Duration `env:"TOKEN_MINT_LEASE,default=5m"`

	// Project completion
	CompletionMinProgress float64 `env:"PROJECT_COMPLETION_MIN_PROGRESS,default=95"`
	RewardWorkers         int     `env:"REWARD_WORKERS,default=4"`
}

// =======================
// ENV LOADER
// =======================
func LoadEnv(log *zap.Logger) {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Info("[CONFIG] .env tidak ditemukan, pakai ENV dari sistem")
		} else {
			log.Info("[CONFIG] .env file berhasil dimuat")
		}
	} else {
		log.Info("[CONFIG] running in Railway, pakai ENV dari sistem")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	if JWTSecret == "" {
		log.Warn("[CONFIG] JWT_SECRET belum diset")
	}
}

// Load memuat .env lalu decode ENV ke Config.
func Load(log *zap.Logger) (*Config, error) {
	LoadEnv(log)

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.NGORadiusKm <= 0 || c.CommunityRadiusKm <= 0 {
		return errors.New("geofence radius must be positive")
	}
	if c.MintEnabled && c.MintBaseURL == "" {
		return errors.New("TOKEN_MINT_BASE_URL wajib diisi kalau TOKEN_MINT_ENABLED=true")
	}
	for _, p := range c.TrustedProxyList() {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", p)
			}
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid ATTENDANCE_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// TrustedProxyList memecah TRUSTED_PROXIES; entri kosong dibuang.
func (c *Config) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=ecoguard&options=-c statement_timeout=3000",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}
