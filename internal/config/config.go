package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Log         LogConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Printer     PrinterConfig
	Shop        ShopConfig
	Billing     BillingConfig
	Idempotency IdempotencyConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Driver         string // postgres or sqlite
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Timezone       string
	SQLitePath     string
	MaxIdleConns   int
	MaxOpenConns   int
	Migrate        bool // apply migrations/*.sql instead of AutoMigrate
	MigrationsPath string
}

type LogConfig struct {
	Level    string
	Encoding string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int // seconds
}

type PrinterConfig struct {
	Type      string // usb, network, file or none
	USBPath   string
	Address   string
	Width     int // characters per line
	OutputDir string
}

type ShopConfig struct {
	Name    string
	Address string
	Phone   string
	GSTIN   string
}

type BillingConfig struct {
	SequenceScope        string // global, monthly or monthly_type
	DefaultGSTPercentage decimal.Decimal
}

type IdempotencyConfig struct {
	TTL             time.Duration
	CleanupSchedule string
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) *Config {
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "billing-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_DEBUG", false)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "billing")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("DB_SQLITE_PATH", "./data/billing.db")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_MIGRATE", false)
	v.SetDefault("DB_MIGRATIONS_PATH", "migrations")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LOG_ENCODING", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_METHODS", "")
	v.SetDefault("CORS_ALLOWED_HEADERS", "")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", 60)
	v.SetDefault("PRINTER_TYPE", "none")
	v.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	v.SetDefault("PRINTER_ADDRESS", "192.168.1.100:9100")
	v.SetDefault("PRINTER_WIDTH", 48)
	v.SetDefault("PRINTER_OUTPUT_DIR", "./receipts")
	v.SetDefault("SHOP_NAME", "My Shop")
	v.SetDefault("SHOP_ADDRESS", "")
	v.SetDefault("SHOP_PHONE", "")
	v.SetDefault("SHOP_GSTIN", "")
	v.SetDefault("BILLING_SEQUENCE_SCOPE", "global")
	v.SetDefault("BILLING_DEFAULT_GST_PERCENTAGE", "18")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("IDEMPOTENCY_CLEANUP_SCHEDULE", "@hourly")

	gstPct, err := decimal.NewFromString(v.GetString("BILLING_DEFAULT_GST_PERCENTAGE"))
	if err != nil {
		gstPct = decimal.NewFromInt(18)
	}

	return &Config{
		App: AppConfig{
			Name:  v.GetString("APP_NAME"),
			Env:   v.GetString("APP_ENV"),
			Port:  v.GetString("APP_PORT"),
			Debug: v.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(v.GetString("DB_DRIVER")),
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetString("DB_PORT"),
			Name:           v.GetString("DB_NAME"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			SSLMode:        v.GetString("DB_SSL_MODE"),
			Timezone:       v.GetString("DB_TIMEZONE"),
			SQLitePath:     v.GetString("DB_SQLITE_PATH"),
			MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
			Migrate:        v.GetBool("DB_MIGRATE"),
			MigrationsPath: v.GetString("DB_MIGRATIONS_PATH"),
		},
		Log: LogConfig{
			Level:    v.GetString("LOG_LEVEL"),
			Encoding: v.GetString("LOG_ENCODING"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(v.GetString("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Printer: PrinterConfig{
			Type:      strings.ToLower(v.GetString("PRINTER_TYPE")),
			USBPath:   v.GetString("PRINTER_USB_PATH"),
			Address:   v.GetString("PRINTER_ADDRESS"),
			Width:     v.GetInt("PRINTER_WIDTH"),
			OutputDir: v.GetString("PRINTER_OUTPUT_DIR"),
		},
		Shop: ShopConfig{
			Name:    v.GetString("SHOP_NAME"),
			Address: v.GetString("SHOP_ADDRESS"),
			Phone:   v.GetString("SHOP_PHONE"),
			GSTIN:   v.GetString("SHOP_GSTIN"),
		},
		Billing: BillingConfig{
			SequenceScope:        strings.ToLower(v.GetString("BILLING_SEQUENCE_SCOPE")),
			DefaultGSTPercentage: gstPct,
		},
		Idempotency: IdempotencyConfig{
			TTL:             v.GetDuration("IDEMPOTENCY_TTL"),
			CleanupSchedule: v.GetString("IDEMPOTENCY_CLEANUP_SCHEDULE"),
		},
	}
}

// IsDevelopment reports whether the app runs in development mode
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// URL returns the connection string in URL form, as golang-migrate expects.
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(c.SSLMode)),
	}
	return u.String()
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
