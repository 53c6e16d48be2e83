package config

import (
	"fmt"
	"os"
	"time"

	"taskmaster/pkg/config"
)

type Config struct {
	Server  config.ServerConfig  `yaml:"server"`
	Backend config.BackendConfig `yaml:"backend"`
	Share   config.ShareConfig   `yaml:"share"`
	Board   config.BoardConfig   `yaml:"board"`
	Log     config.LogConfig     `yaml:"log"`
	DB      config.DBConfig      `yaml:"db"`
	Redis   config.RedisConfig   `yaml:"redis"`
	MQ      config.MQConfig      `yaml:"mq"`
}

// Load 读取 <dir>/base.yaml 和 <dir>/<CONFIG_ENV>.yaml，再用环境变量覆盖
func Load(dir string) (*Config, error) {
	env := config.GetConfigEnv()
	merged, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := config.Decode(merged, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s config: %w", env, err)
	}

	// 环境变量覆盖
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideBackendFromEnv(&cfg.Backend)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	if url := os.Getenv("SHARE_PUBLIC_BASE_URL"); url != "" {
		cfg.Share.PublicBaseURL = url
	}
	if wf := os.Getenv("BOARD_WORKFLOW"); wf != "" {
		cfg.Board.Workflow = wf
	}

	applyDefaults(&cfg)
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend.base_url is required")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Share.CacheTTL <= 0 {
		cfg.Share.CacheTTL = 5 * time.Minute
	}
	if cfg.Board.IdleTTL == 0 {
		cfg.Board.IdleTTL = 30 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
}
