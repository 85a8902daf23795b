package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Development bool

	// HTTP server
	Host string
	Port int

	// Address policy
	Domains       []string
	ReservedNames []string
	PinSecret     string

	SiteName    string
	SiteSubName string

	// Outbound transport
	TorProxyURL      string
	AllowInsecureTLS bool
	InvoiceTimeout   time.Duration

	// Hosted wallet used for keysend relaying
	LNBitsURL     string
	LNBitsAPIKey  string
	LNBitsAdminID string

	// Postgres configuration
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string

	// Operator notifications
	TelegramBotToken string
	TelegramChatID   string
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development: getEnvAsBool("DEVELOPMENT", false),

		Host: getEnv("HOST", "127.0.0.1"),
		Port: getEnvAsInt("PORT", 3030),

		Domains:       getEnvAsCSV("DOMAINS", nil),
		ReservedNames: getEnvAsCSV("RESERVED_NAMES", []string{"admin", "root", "berni"}),
		PinSecret:     getEnv("PIN_SECRET", ""),

		SiteName:    getEnv("SITE_NAME", "Sataddr"),
		SiteSubName: getEnv("SITE_SUB_NAME", "Lightning addresses for your domain"),

		TorProxyURL:      getEnv("TOR_PROXY_URL", "socks5://127.0.0.1:9050"),
		AllowInsecureTLS: getEnvAsBool("ALLOW_INSECURE_TLS", true),
		InvoiceTimeout:   time.Duration(getEnvAsInt("INVOICE_TIMEOUT_SECONDS", 180)) * time.Second,

		LNBitsURL:     getEnv("LNBITS_URL", ""),
		LNBitsAPIKey:  getEnv("LNBITS_API_KEY", ""),
		LNBitsAdminID: getEnv("LNBITS_ADMIN_ID", ""),

		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDB:       getEnv("POSTGRES_DB", "sataddr"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if len(c.Domains) == 0 {
		return fmt.Errorf("DOMAINS is required")
	}

	if c.PinSecret == "" {
		return fmt.Errorf("PIN_SECRET is required")
	}

	if c.InvoiceTimeout < 30*time.Second || c.InvoiceTimeout > 180*time.Second {
		return fmt.Errorf("INVOICE_TIMEOUT_SECONDS must be between 30 and 180")
	}

	if c.PostgresDB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}

	return nil
}

// HasDomain reports whether domain is served by this deployment.
func (c *Config) HasDomain(domain string) bool {
	for _, d := range c.Domains {
		if d == domain {
			return true
		}
	}
	return false
}

// IsReservedName reports whether name may not be registered.
func (c *Config) IsReservedName(name string) bool {
	for _, n := range c.ReservedNames {
		if n == name {
			return true
		}
	}
	return false
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsCSV(name string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(name)
	if !exists {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
