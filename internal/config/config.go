package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerCfg struct {
	Port                int `mapstructure:"port"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
}

type MongoCfg struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JWTCfg struct {
	Alg           string `mapstructure:"alg"`
	Secret        string `mapstructure:"secret"`
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type MessagesCfg struct {
	DeleteWindowMinutes int `mapstructure:"delete_window_minutes"`
}

type Config struct {
	Development bool        `mapstructure:"development"`
	Server      ServerCfg   `mapstructure:"server"`
	Mongo       MongoCfg    `mapstructure:"mongo"`
	Redis       RedisCfg    `mapstructure:"redis"`
	Kafka       KafkaCfg    `mapstructure:"kafka"`
	JWT         JWTCfg      `mapstructure:"jwt"`
	Messages    MessagesCfg `mapstructure:"messages"`
	MetricsAddr string      `mapstructure:"metrics_addr"`

	// Derived
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DeleteWindow time.Duration
}

// Load reads the config file at path (optional) with APP_ env overrides, e.g.
// APP_SERVER_PORT or APP_MONGO_URI.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "chatterbox")
	v.SetDefault("redis.prefix", "msgsvc")
	v.SetDefault("jwt.alg", "HS256")
	v.SetDefault("messages.delete_window_minutes", 60)
	v.SetDefault("metrics_addr", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.ReadTimeout = time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	cfg.DeleteWindow = time.Duration(cfg.Messages.DeleteWindowMinutes) * time.Minute
	return &cfg, nil
}
