package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
	Reminders RemindersConfig
	MinIO     MinIOConfig
	Queues    QueuesConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MongoDBConfig is optional: an empty URI selects the in-memory repositories.
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
}

// Issuer returns the realm issuer URL, or URL itself when no realm is set.
func (k KeycloakConfig) Issuer() string {
	if k.Realm == "" {
		return k.URL
	}
	return strings.TrimRight(k.URL, "/") + "/realms/" + k.Realm
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
	// AllowInsecure accepts unsigned tokens. Integration environments only.
	AllowInsecure bool
}

type RateLimitConfig struct {
	Enabled  bool
	RPS      float64
	Burst    int
	UseRedis bool
	Window   time.Duration
}

type SchedulerConfig struct {
	Interval          time.Duration
	SideEffectTimeout time.Duration
}

type RemindersConfig struct {
	OffsetWeeks   []int
	ResponseWeeks int
	Window        time.Duration
	SendRate      float64
	SendBurst     int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

type QueuesConfig struct {
	Publishing string
	Mail       string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "govpub")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("SCHEDULER_INTERVAL_SECONDS", 60)
	viper.SetDefault("SIDE_EFFECT_TIMEOUT_SECONDS", 10)
	viper.SetDefault("REMINDER_OFFSET_WEEKS", "4,1")
	viper.SetDefault("REMINDER_RESPONSE_WEEKS", 12)
	viper.SetDefault("REMINDER_WINDOW_HOURS", 24)
	viper.SetDefault("REMINDER_SEND_RATE", 5)
	viper.SetDefault("REMINDER_SEND_BURST", 5)
	viper.SetDefault("MINIO_BUCKET", "search-summaries")
	viper.SetDefault("MINIO_PREFIX", "editions/")
	viper.SetDefault("QUEUE_PUBLISHING", "queue:publishing")
	viper.SetDefault("QUEUE_MAIL", "queue:mail")

	offsets, err := parseWeeks(viper.GetString("REMINDER_OFFSET_WEEKS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:          viper.GetString("KEYCLOAK_URL"),
			Realm:        viper.GetString("KEYCLOAK_REALM"),
			ClientID:     viper.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: viper.GetString("KEYCLOAK_CLIENT_SECRET"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			AllowInsecure:  viper.GetBool("ALLOW_INSECURE_TOKEN"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:      viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:    viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis: viper.GetBool("RATE_LIMIT_USE_REDIS"),
			Window:   time.Duration(viper.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		Scheduler: SchedulerConfig{
			Interval:          time.Duration(viper.GetInt("SCHEDULER_INTERVAL_SECONDS")) * time.Second,
			SideEffectTimeout: time.Duration(viper.GetInt("SIDE_EFFECT_TIMEOUT_SECONDS")) * time.Second,
		},
		Reminders: RemindersConfig{
			OffsetWeeks:   offsets,
			ResponseWeeks: viper.GetInt("REMINDER_RESPONSE_WEEKS"),
			Window:        time.Duration(viper.GetInt("REMINDER_WINDOW_HOURS")) * time.Hour,
			SendRate:      viper.GetFloat64("REMINDER_SEND_RATE"),
			SendBurst:     viper.GetInt("REMINDER_SEND_BURST"),
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
			Prefix:    viper.GetString("MINIO_PREFIX"),
		},
		Queues: QueuesConfig{
			Publishing: viper.GetString("QUEUE_PUBLISHING"),
			Mail:       viper.GetString("QUEUE_MAIL"),
		},
	}

	// Basic validation
	if cfg.MongoDB.URI == "" {
		log.Println("WARNING: MONGODB_URI is not set; editions and reminders are kept in memory")
	}
	if cfg.JWT.Secret == "" && cfg.Keycloak.URL == "" {
		log.Println("WARNING: neither JWT_SECRET nor KEYCLOAK_URL is set; API routes will reject every token")
	}

	return cfg, nil
}

// parseWeeks reads a comma separated list such as "4,1".
func parseWeeks(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, &InvalidValueError{Key: "REMINDER_OFFSET_WEEKS", Value: s}
		}
		out = append(out, n)
	}
	return out, nil
}

// InvalidValueError reports an environment value that could not be parsed.
type InvalidValueError struct {
	Key   string
	Value string
}

func (e *InvalidValueError) Error() string {
	return "invalid value for " + e.Key + ": " + strconv.Quote(e.Value)
}
