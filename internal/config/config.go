package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/nakshtra/chat-service/pkg/config"
	"github.com/nakshtra/chat-service/pkg/database"
	"github.com/nakshtra/chat-service/pkg/log"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Auth      AuthConfig
	Database  database.Config
	Presence  PresenceConfig
	History   HistoryConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type AuthConfig struct {
	Secret string
	Issuer string
}

type PresenceConfig struct {
	Backend           string        // "memory" or "redis"
	Address           string        // redis only
	Password          string        // redis only
	DB                int           // redis only
	Prefix            string        `mapstructure:"prefix"`
	KeyTTL            time.Duration `mapstructure:"key_ttl"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

type HistoryConfig struct {
	Limit int
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "nakshtra")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "./chat.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5)
	v.SetDefault("presence.backend", "memory")
	v.SetDefault("presence.address", "localhost:6379")
	v.SetDefault("presence.password", "")
	v.SetDefault("presence.db", 0)
	v.SetDefault("presence.prefix", "chat:presence")
	v.SetDefault("presence.key_ttl", "60s")
	v.SetDefault("presence.heartbeat_interval", "20s")
	v.SetDefault("history.limit", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "chat-service")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("auth.secret", "JWT_SECRET")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.db_name", "DB_NAME")
	v.BindEnv("presence.backend", "PRESENCE_BACKEND")
	v.BindEnv("presence.address", "REDIS_ADDRESS")
	v.BindEnv("presence.password", "REDIS_PASSWORD")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Presence.KeyTTL = parseDuration(v, "presence.key_ttl", 60*time.Second)
	cfg.Presence.HeartbeatInterval = parseDuration(v, "presence.heartbeat_interval", 20*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
