// Package config 提供配置加载和管理功能
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config 全局配置结构
type Config struct {
	// Chat 聊天服务配置
	Chat ChatConfig `koanf:"chat"`
	// Context 上下文提取与增强配置
	Context ContextConfig `koanf:"context"`
	// Observability 可观测性配置
	Observability ObservabilityConfig `koanf:"observability"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	// Enabled 是否启用
	Enabled bool `koanf:"enabled"`
	// ServiceName 服务名称
	ServiceName string `koanf:"service_name"`
	// Exporter 导出器类型（"stdout"、"otlp-http"、"otlp-grpc"、"none"）
	Exporter string `koanf:"exporter"`
	// Endpoint OTLP 端点
	Endpoint string `koanf:"endpoint"`
}

// Loader 配置加载器
type Loader struct {
	k *koanf.Koanf
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		k: koanf.New("."),
	}
}

// LoadEnv 从环境变量加载配置
func (l *Loader) LoadEnv(prefix string) error {
	return l.k.Load(env.Provider(prefix, ".", func(s string) string {
		// 转换环境变量名: DASHCHAT_CHAT_API_KEY -> chat.api_key
		// 只在第一个下划线处分段，段内键名保留下划线
		s = strings.TrimPrefix(s, prefix)
		s = strings.ToLower(s)
		return strings.Replace(s, "_", ".", 1)
	}), nil)
}

// Unmarshal 解析配置到结构体
func (l *Loader) Unmarshal(cfg *Config) error {
	return l.k.Unmarshal("", cfg)
}

// GetString 获取字符串配置值
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetInt 获取整数配置值
func (l *Loader) GetInt(key string) int {
	return l.k.Int(key)
}

// GetBool 获取布尔配置值
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// GetDuration 获取时间间隔配置值
func (l *Loader) GetDuration(key string) time.Duration {
	return l.k.Duration(key)
}

// Load 加载完整配置（环境变量，前缀 DASHCHAT_）
func Load() (*Config, error) {
	loader := NewLoader()

	if err := loader.LoadEnv("DASHCHAT_"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults 应用默认配置值
func applyDefaults(cfg *Config) {
	cfg.Chat.applyDefaults()
	cfg.Context.applyDefaults()

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "dashchat"
	}
	if cfg.Observability.Exporter == "" {
		cfg.Observability.Exporter = "stdout"
	}
}
