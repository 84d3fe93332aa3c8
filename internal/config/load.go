package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Bot        BotConfig        `json:"bot"`
	Database   DatabaseConfig   `json:"database"`
	Queue      QueueConfig      `json:"queue"`
	Moderation ModerationConfig `json:"moderation"`
	Network    NetworkConfig    `json:"network"`
	Logging    LoggingConfig    `json:"logging"`
}

type BotConfig struct {
	Token   string `json:"token"`
	GuildID string `json:"guild_id"`
}

type DatabaseConfig struct {
	Path            string `json:"path"`
	MaxOpenConns    int    `json:"max_open_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	PoolWaitTimeout int    `json:"pool_wait_timeout_ms"`
}

type QueueConfig struct {
	Size    int `json:"size"`
	Workers int `json:"workers"`
}

type ModerationConfig struct {
	LockTimeout int `json:"lock_timeout_ms"`
}

type NetworkConfig struct {
	HTTPPoolSize int    `json:"http_pool_size"`
	APIBaseURL   string `json:"api_base_url"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

func (d DatabaseConfig) PoolWait() time.Duration {
	return time.Duration(d.PoolWaitTimeout) * time.Millisecond
}

func (m ModerationConfig) LockWait() time.Duration {
	return time.Duration(m.LockTimeout) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// ApplyEnv reapplies environment overrides, for callers that build a Config
// without going through Load.
func (c *Config) ApplyEnv() {
	applyEnvOverrides(c)
}

func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if guildID := os.Getenv("GUILD_ID"); guildID != "" {
		cfg.Bot.GuildID = guildID
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if poolSize := os.Getenv("DATABASE_POOL_LIMIT"); poolSize != "" {
		if n, err := strconv.Atoi(poolSize); err == nil && n > 0 {
			cfg.Database.MaxOpenConns = n
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/ayana.db",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			PoolWaitTimeout: 5000,
		},
		Queue: QueueConfig{
			Size:    4096,
			Workers: 8,
		},
		Moderation: ModerationConfig{
			LockTimeout: 5000,
		},
		Network: NetworkConfig{
			HTTPPoolSize: 4,
			APIBaseURL:   "https://discord.com/api/v10",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "logs/bot.log",
		},
	}
}
