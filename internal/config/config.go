package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config représente la configuration du service Ludothèque
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig configuration du serveur HTTP
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	Environment  string        `mapstructure:"environment"`
	Debug        bool          `mapstructure:"debug"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	StaticDir    string        `mapstructure:"static_dir"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
}

// DatabaseConfig configuration du stockage des jeux.
// Driver vaut "postgres" ou "memory".
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	URL          string `mapstructure:"url"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// NATSConfig configuration de la publication d'événements
type NATSConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	URL                  string        `mapstructure:"url"`
	ClientID             string        `mapstructure:"client_id"`
	SubjectPrefix        string        `mapstructure:"subject_prefix"`
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
}

// RateLimitConfig configuration rate limiting
type RateLimitConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	BurstSize         int           `mapstructure:"burst_size"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// MonitoringConfig configuration monitoring
type MonitoringConfig struct {
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// Default retourne la configuration par défaut
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         3000,
			Host:         "0.0.0.0",
			Environment:  "development",
			Debug:        true,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			StaticDir:    "public",
			AllowOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			User:         "ludotheque",
			Password:     "ludotheque",
			Name:         "ludotheque",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		NATS: NATSConfig{
			Enabled:              false,
			URL:                  "nats://localhost:4222",
			ClientID:             "ludotheque",
			SubjectPrefix:        "ludotheque",
			ConnectTimeout:       5 * time.Second,
			ReconnectDelay:       2 * time.Second,
			MaxReconnectAttempts: 10,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 300,
			BurstSize:         50,
			CleanupInterval:   5 * time.Minute,
		},
		Monitoring: MonitoringConfig{
			MetricsPath: "/metrics",
			HealthPath:  "/health",
		},
	}
}

// LoadConfig charge la configuration: valeurs par défaut, fichier
// config.yaml optionnel, puis variables d'environnement.
func LoadConfig() (*Config, error) {
	config := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ludotheque/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		if err := v.Unmarshal(config); err != nil {
			return nil, fmt.Errorf("error unmarshalling config: %w", err)
		}
	}

	loadFromEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// loadFromEnv charge depuis les variables d'environnement
func loadFromEnv(config *Config) {
	// Server
	if port := os.Getenv("LUDO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	} else if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LUDO_HOST"); host != "" {
		config.Server.Host = host
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Server.Environment = env
		if env == "production" {
			config.Server.Debug = false
		}
	}
	if dir := os.Getenv("LUDO_STATIC_DIR"); dir != "" {
		config.Server.StaticDir = dir
	}

	// Database
	if driver := os.Getenv("LUDO_DB_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.Database.URL = url
	}
	if host := os.Getenv("LUDO_DB_HOST"); host != "" {
		config.Database.Host = host
	}
	if port := os.Getenv("LUDO_DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Database.Port = p
		}
	}
	if user := os.Getenv("LUDO_DB_USER"); user != "" {
		config.Database.User = user
	}
	if password := os.Getenv("LUDO_DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}
	if name := os.Getenv("LUDO_DB_NAME"); name != "" {
		config.Database.Name = name
	}
	if sslMode := os.Getenv("LUDO_DB_SSL_MODE"); sslMode != "" {
		config.Database.SSLMode = sslMode
	}

	// NATS
	if url := os.Getenv("NATS_URL"); url != "" {
		config.NATS.URL = url
	}
	if enabled := os.Getenv("NATS_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.NATS.Enabled = b
		}
	}
}

// validateConfig valide la configuration
func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Database.Driver {
	case "memory":
	case "postgres":
		if config.Database.URL == "" {
			if config.Database.Host == "" {
				return fmt.Errorf("database host is required")
			}
			if config.Database.User == "" {
				return fmt.Errorf("database user is required")
			}
			if config.Database.Name == "" {
				return fmt.Errorf("database name is required")
			}
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", config.Database.Driver)
	}

	if config.NATS.Enabled && config.NATS.URL == "" {
		return fmt.Errorf("NATS URL is required when NATS is enabled")
	}

	if config.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("requests per minute must be at least 1")
	}
	if config.RateLimit.BurstSize < 1 {
		return fmt.Errorf("rate limit burst size must be at least 1")
	}
	if config.RateLimit.CleanupInterval <= 0 {
		return fmt.Errorf("rate limit cleanup interval must be positive")
	}

	return nil
}

// GetDatabaseURL retourne l'URL de connexion PostgreSQL
func (c *DatabaseConfig) GetDatabaseURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}
