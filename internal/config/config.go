package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv 指向可选的 yaml 配置文件
const ConfigFileEnv = "VEGCRIB_CONFIG"

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string `yaml:"listen_addr"`
	Port          string `yaml:"port"`
	DatabasePath  string `yaml:"database_path"`
	SessionSecret string `yaml:"session_secret"`
	GinMode       string `yaml:"gin_mode"`
	LogLevel      string `yaml:"log_level"`
	LogPretty     bool   `yaml:"log_pretty"`
}

// Load 读取应用配置：先加载 VEGCRIB_CONFIG 指向的 yaml 文件（如有），
// 再由环境变量覆盖，最后为缺失项提供默认值。
func Load() (AppConfig, error) {
	var cfg AppConfig

	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		cfg = fileCfg
	}

	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.ListenAddr, "LISTEN_ADDR")
	overrideString(&cfg.DatabasePath, "DATABASE_PATH")
	overrideString(&cfg.SessionSecret, "SESSION_SECRET")
	overrideString(&cfg.GinMode, "GIN_MODE")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")

	if raw := strings.TrimSpace(os.Getenv("LOG_PRETTY")); raw != "" {
		pretty, err := strconv.ParseBool(raw)
		if err != nil {
			return AppConfig{}, fmt.Errorf("parse LOG_PRETTY: %w", err)
		}
		cfg.LogPretty = pretty
	}

	applyDefaults(&cfg)
	return cfg, nil
}

// LoadFile 解析 yaml 配置文件，不应用默认值
func LoadFile(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func overrideString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "database/veg_crib.db"
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "vegcrib-dev-secret"
	}
	if cfg.GinMode == "" {
		cfg.GinMode = "release"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
