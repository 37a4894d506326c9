package config

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	DBHost             string        `mapstructure:"DB_HOST"`
	DBPort             string        `mapstructure:"DB_PORT"`
	DBName             string        `mapstructure:"DB_NAME"`
	DBUser             string        `mapstructure:"DB_USER"`
	DBPassword         string        `mapstructure:"DB_PASSWORD"`
	RedisHost          string        `mapstructure:"REDIS_HOST"`
	RedisPort          string        `mapstructure:"REDIS_PORT"`
	KafkaBroker        string        `mapstructure:"KAFKA_BROKER"`
	CartEventsTopic    string        `mapstructure:"CART_EVENTS_TOPIC"`
	CatalogEventsTopic string        `mapstructure:"CATALOG_EVENTS_TOPIC"`
	PublicBaseURL      string        `mapstructure:"PUBLIC_BASE_URL"`
	UploadDir          string        `mapstructure:"UPLOAD_DIR"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
	MenuCacheTTL       time.Duration `mapstructure:"MENU_CACHE_TTL"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":          "8081",
	"DB_HOST":              "localhost",
	"DB_PORT":              "5432",
	"DB_NAME":              "storefront",
	"DB_USER":              "postgres",
	"DB_PASSWORD":          "",
	"REDIS_HOST":           "localhost",
	"REDIS_PORT":           "6379",
	"KAFKA_BROKER":         "localhost:9092",
	"CART_EVENTS_TOPIC":    "cart_events",
	"CATALOG_EVENTS_TOPIC": "catalog_updates",
	"PUBLIC_BASE_URL":      "http://localhost:8080",
	"UPLOAD_DIR":           "./uploads",
	"SESSION_TTL":          "2h",
	"MENU_CACHE_TTL":       "5m",
	"LOG_LEVEL":            "info",
}

// Load reads the configuration from the environment. Every key has a default,
// so a bare environment yields a usable local setup.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cf, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func NewLogger(cf *Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cf.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func MustInitPostgres(cf *Config, logger zerolog.Logger) *sql.DB {
	db, err := sql.Open("postgres", cf.PostgresDSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err = db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis(cf *Config, logger zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cf.RedisAddr(),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	return client
}

func NewKafkaReader(cf *Config, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cf.KafkaBroker},
		Topic:   topic,
		GroupID: groupID,
	})
}

func NewKafkaWriter(cf *Config, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(cf.KafkaBroker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
}
