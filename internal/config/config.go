package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Orders        OrdersConfig        `mapstructure:"orders"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Log           LogConfig           `mapstructure:"log"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	GroupID string `mapstructure:"group_id"`
}

type AuthConfig struct {
	AdminEmail    string        `mapstructure:"admin_email"`
	AllowedDomain string        `mapstructure:"allowed_domain"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	TokenInfoURL  string        `mapstructure:"token_info_url"`
}

type OrdersConfig struct {
	DiscountPercent        float64  `mapstructure:"discount_percent"`
	DefaultEstimateMinutes int      `mapstructure:"default_estimate_minutes"`
	Hostels                []string `mapstructure:"hostels"`
}

type NotificationsConfig struct {
	FeedLimit int `mapstructure:"feed_limit"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the optional YAML config file and applies CANTEEN_* environment
// overrides on top of the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "canteen")
	v.SetDefault("postgres.password", "canteen")
	v.SetDefault("postgres.database", "canteen")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.group_id", "canteen-notifier")
	v.SetDefault("auth.allowed_domain", "iiita.ac.in")
	v.SetDefault("auth.admin_email", "kings.iiita@gmail.com")
	v.SetDefault("auth.session_ttl", 12*time.Hour)
	v.SetDefault("auth.token_info_url", "https://oauth2.googleapis.com/tokeninfo")
	v.SetDefault("orders.discount_percent", 5.0)
	v.SetDefault("orders.default_estimate_minutes", 15)
	v.SetDefault("orders.hostels", []string{"BH1", "BH2", "BH3", "BH4", "BH5", "GH1", "GH2"})
	v.SetDefault("notifications.feed_limit", 20)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("CANTEEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret must be set")
	}

	return &config, nil
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}
