package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env        string `toml:"env"`
	Port       string `toml:"port"`
	CORSOrigin string `toml:"cors_origin"`

	// Database
	DBDriver   string `toml:"db_driver"`
	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`
	DBSSLMode  string `toml:"db_sslmode"`
	DBPath     string `toml:"db_path"`

	// JWT
	JWTSecret        string        `toml:"jwt_secret"`
	JWTExpirationDur time.Duration `toml:"-"`
	JWTExpiresIn     string        `toml:"jwt_expires_in"`

	// Auth cookie
	CookieName   string `toml:"cookie_name"`
	CookieSecure bool   `toml:"cookie_secure"`

	// Redis (token revocation list); empty disables revocation.
	RedisAddr string `toml:"redis_addr"`
}

var appConfig *Config

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Env:          "development",
		Port:         "8080",
		CORSOrigin:   "*",
		DBDriver:     "postgres",
		DBHost:       "localhost",
		DBPort:       "5432",
		DBUser:       "budgetapp",
		DBPassword:   "budgetapp",
		DBName:       "budgetapp",
		DBSSLMode:    "disable",
		DBPath:       "budgetapp.db",
		JWTSecret:    "fallback-secret-key-for-dev-only",
		JWTExpiresIn: "336h",
		CookieName:   "Token",
	}
}

// Load loads configuration from an optional TOML file (BUDGETAPP_CONFIG),
// then .env, then environment variables. Later sources win.
func Load() (*Config, error) {
	config := Defaults()

	if path := os.Getenv("BUDGETAPP_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Server
	config.Env = getEnv("ENV", config.Env)
	config.Port = getEnv("PORT", config.Port)
	config.CORSOrigin = getEnv("CORS_ORIGIN", config.CORSOrigin)

	// Database
	config.DBDriver = getEnv("DB_DRIVER", config.DBDriver)
	config.DBHost = getEnv("DB_HOST", config.DBHost)
	config.DBPort = getEnv("DB_PORT", config.DBPort)
	config.DBUser = getEnv("DB_USER", config.DBUser)
	config.DBPassword = getEnv("DB_PASSWORD", config.DBPassword)
	config.DBName = getEnv("DB_NAME", config.DBName)
	config.DBSSLMode = getEnv("DB_SSLMODE", config.DBSSLMode)
	config.DBPath = getEnv("DB_PATH", config.DBPath)

	// JWT
	config.JWTSecret = getEnv("JWT_SECRET", config.JWTSecret)
	config.JWTExpiresIn = getEnv("JWT_EXPIRES_IN", config.JWTExpiresIn)

	config.CookieName = getEnv("COOKIE_NAME", config.CookieName)
	config.CookieSecure = getEnvBool("COOKIE_SECURE", config.CookieSecure)
	config.RedisAddr = getEnv("REDIS_ADDR", config.RedisAddr)

	if config.DBDriver != "postgres" && config.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", config.DBDriver)
	}

	// Parse JWT expiration duration
	expDur, err := time.ParseDuration(config.JWTExpiresIn)
	if err != nil || expDur <= 0 {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 336h\n", config.JWTExpiresIn)
		expDur = 14 * 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the process-wide configuration. Used by tests and tools
// that build a Config by hand.
func Set(c *Config) {
	if c.JWTExpirationDur == 0 {
		c.JWTExpirationDur = 14 * 24 * time.Hour
	}
	appConfig = c
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', using %v\n", key, value, defaultValue)
		return defaultValue
	}
	return b
}
