package llm

import (
	"fmt"

	"github.com/easyops/dashchat-go/pkg/core/config"
)

// FromConfig 从聊天配置创建 Provider
func FromConfig(cfg config.ChatConfig) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := []Option{
		WithModel(cfg.Model),
		WithTimeout(cfg.Timeout),
		WithMaxRetries(cfg.MaxRetryAttempts),
		WithRetryDelay(cfg.RetryBackoff),
	}

	if cfg.APIKey != "" {
		opts = append(opts, WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}

	return NewOpenAI(opts...)
}

// MustFromConfig 从配置创建 Provider，失败时 panic
func MustFromConfig(cfg config.ChatConfig) Provider {
	provider, err := FromConfig(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create provider from config: %v", err))
	}
	return provider
}
