package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Firebase   FirebaseConfig
	Affiliate  AffiliateConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether the server runs with production settings
// (secure cookies, no error details in responses).
func (s ServerConfig) IsProduction() bool { return s.Env == "production" }

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

// AffiliateConfig holds process-level affiliate defaults. The admin-editable
// values (rate, min payout, cookie duration) live in the affiliate_settings
// table; the values here only seed it.
type AffiliateConfig struct {
	CookieName                string
	DefaultCommissionRate     float64
	DefaultMinPayoutCents     int64
	DefaultCookieDurationDays int
	// LegacyApproveAlias stores an APPROVED status request as PENDING.
	LegacyApproveAlias bool
	ClickRateLimit     int
	ClickRateWindow    time.Duration
}

type LogConfig struct {
	Level string
}

// AdminSeed is read by the database seeder only.
type AdminSeed struct {
	Email    string
	Password string
}

func Load() *Config {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8099"),
			Env:          getEnv("SERVER_ENV", "development"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "incorpo:incorpo@tcp(localhost:3306)/incorpo?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "incorpo"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getEnv("CLOUDINARY_FOLDER", "incorpo/payout-receipts"),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
		},
		Affiliate: AffiliateConfig{
			CookieName:                getEnv("AFFILIATE_COOKIE_NAME", "affiliate"),
			DefaultCommissionRate:     getFloat("AFFILIATE_DEFAULT_COMMISSION_RATE", 10),
			DefaultMinPayoutCents:     int64(getInt("AFFILIATE_DEFAULT_MIN_PAYOUT_CENTS", 5000)),
			DefaultCookieDurationDays: getInt("AFFILIATE_DEFAULT_COOKIE_DAYS", 30),
			LegacyApproveAlias:        getBool("AFFILIATE_LEGACY_APPROVE_ALIAS", false),
			ClickRateLimit:            getInt("AFFILIATE_CLICK_RATE_LIMIT", 60),
			ClickRateWindow:           getDuration("AFFILIATE_CLICK_RATE_WINDOW", time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// LoadAdminSeed returns the bootstrap admin credentials, if configured.
func LoadAdminSeed() AdminSeed {
	return AdminSeed{
		Email:    os.Getenv("ADMIN_EMAIL"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
