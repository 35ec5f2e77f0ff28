package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the API server
type Config struct {
	AppEnv string
	Port   string

	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPath         string
	DBMaxOpenConns int
	DBMaxIdleConns int

	JWTSecret    string
	JWTExpiresIn time.Duration

	CORSAllowedOrigins []string
	WebhookTimeout     time.Duration
}

var defaults = map[string]interface{}{
	"APP_ENV":              "development",
	"PORT":                 "5000",
	"DB_DRIVER":            "mysql",
	"DB_HOST":              "localhost",
	"DB_PORT":              "3306",
	"DB_USER":              "root",
	"DB_PASSWORD":          "",
	"DB_NAME":              "task_management",
	"DB_PATH":              "teamtasks.db",
	"DB_MAX_OPEN_CONNS":    25,
	"DB_MAX_IDLE_CONNS":    10,
	"JWT_SECRET":           "",
	"JWT_EXPIRES_IN":       "24h",
	"CORS_ALLOWED_ORIGINS": "*",
	"WEBHOOK_TIMEOUT":      "10s",
}

// Load reads .env (when present) and the process environment into a Config
func Load() (*Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	expires, err := ParseExpiry(v.GetString("JWT_EXPIRES_IN"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}
	webhookTimeout, err := time.ParseDuration(v.GetString("WEBHOOK_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	cfg := &Config{
		AppEnv:             v.GetString("APP_ENV"),
		Port:               v.GetString("PORT"),
		DBDriver:           v.GetString("DB_DRIVER"),
		DBHost:             v.GetString("DB_HOST"),
		DBPort:             v.GetString("DB_PORT"),
		DBUser:             v.GetString("DB_USER"),
		DBPassword:         v.GetString("DB_PASSWORD"),
		DBName:             v.GetString("DB_NAME"),
		DBPath:             v.GetString("DB_PATH"),
		DBMaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTExpiresIn:       expires,
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		WebhookTimeout:     webhookTimeout,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.DBDriver != "mysql" && cfg.DBDriver != "sqlite3" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

// ParseExpiry accepts Go durations ("12h") and day counts ("7d")
func ParseExpiry(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(raw, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(raw)
}

// IsDevelopment reports whether internal error detail may be exposed to clients
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// DSN builds the driver-specific data source name
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite3" {
		return fmt.Sprintf("file:%s?_foreign_keys=on", c.DBPath)
	}
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DBHost, c.DBPort)
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN()
}

// LogFields returns the loggable view of the config, secrets masked
func (c *Config) LogFields() []interface{} {
	return []interface{}{
		"app_env", c.AppEnv,
		"port", c.Port,
		"db_driver", c.DBDriver,
		"db_host", c.DBHost,
		"db_port", c.DBPort,
		"db_user", c.DBUser,
		"db_password", maskSecret(c.DBPassword),
		"db_name", c.DBName,
		"jwt_expires_in", c.JWTExpiresIn.String(),
		"cors_allowed_origins", c.CORSAllowedOrigins,
	}
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-2)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
