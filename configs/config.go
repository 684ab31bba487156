package configs

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	config *Config
	once   sync.Once
)

type Config struct {
	Viper *viper.Viper
}

// GetConfig loads config.yaml (optional), .env (optional) and WHITEBOARD_* environment overrides.
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Debug("no .env file found, using process environment")
		}
		config = &Config{Viper: load()}
	})
	return config
}

// NewConfig returns a config with defaults only. Used by tests and tools.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{Viper: v}
}

func load() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("WHITEBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logrus.Warn("config file not found, using defaults and environment")
		} else {
			logrus.Fatalf("Failed to read config file: %v", err)
		}
	}
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "whiteboard")
	v.SetDefault("database.ssl", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.path", "whiteboard.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "whiteboard_channel")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration_time", 3600)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.presign_expiry_seconds", 0)

	v.SetDefault("rate_limit.max_requests", 20)
	v.SetDefault("rate_limit.window_seconds", 60)

	v.SetDefault("socket.max_message_size", 1<<20)
	v.SetDefault("socket.write_timeout_seconds", 5)
	v.SetDefault("socket.ping_interval_seconds", 15)
	v.SetDefault("socket.messages_per_second", 30)
	v.SetDefault("socket.message_burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
