package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultQRSecret is only fit for local development. Anyone who reads it can
// forge confirmation codes.
const DefaultQRSecret = "charity-dev-qr-secret"

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	Admission AdmissionConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver       string // postgres, mysql or sqlite
	DSN          string // overrides the composed DSN when set
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr     string // empty disables the listing cache
	CacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	Registrations string
	Events        string
}

type AuthConfig struct {
	AdminJWTSecret string
	OIDCIssuer     string
	QRSecret       string // seals registration confirmation codes
}

// UsingDefaultQRSecret reports whether QR_SECRET was left unset.
func (a AuthConfig) UsingDefaultQRSecret() bool {
	return a.QRSecret == DefaultQRSecret
}

type AdmissionConfig struct {
	MaxRetries int
}

type LogConfig struct {
	Dir   string
	Color bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":3030"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:          os.Getenv("DB_DSN"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "charity_user"),
			Password:     getEnv("DB_PASSWORD", "charity_pass"),
			Database:     getEnv("DB_NAME", "charityevents_db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			CacheTTL: time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Topics: TopicConfig{
				Registrations: getEnv("KAFKA_TOPIC_REGISTRATIONS", "charity.registrations.admitted"),
				Events:        getEnv("KAFKA_TOPIC_EVENTS", "charity.events.changed"),
			},
		},
		Auth: AuthConfig{
			AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
			OIDCIssuer:     os.Getenv("OIDC_ISSUER"),
			QRSecret:       getEnv("QR_SECRET", DefaultQRSecret),
		},
		Admission: AdmissionConfig{
			MaxRetries: getEnvInt("ADMISSION_MAX_RETRIES", 3),
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Color: getEnvBool("LOG_COLOR", true),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
