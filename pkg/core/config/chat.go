package config

import (
	"time"

	"github.com/easyops/dashchat-go/pkg/core/errors"
)

// ChatConfig 聊天服务配置
type ChatConfig struct {
	// Model 模型名称
	Model string `koanf:"model"`
	// APIKey API 密钥
	APIKey string `koanf:"api_key"`
	// BaseURL 自定义 API 端点（OpenAI 兼容网关）
	BaseURL string `koanf:"base_url"`
	// Timeout 单次请求超时时间
	// 默认: 30s
	Timeout time.Duration `koanf:"timeout"`
	// EnableContextAugmentation 是否启用上下文增强
	EnableContextAugmentation bool `koanf:"enable_context_augmentation"`
	// EnableStandardChatFallback 增强失败时是否回退到无上下文聊天
	EnableStandardChatFallback bool `koanf:"enable_standard_chat_fallback"`
	// MaxRetryAttempts 传输层最大重试次数
	// 默认: 3
	MaxRetryAttempts int `koanf:"max_retry_attempts"`
	// RetryBackoff 重试退避基数
	// 默认: 1s
	RetryBackoff time.Duration `koanf:"retry_backoff"`
}

// ContextConfig 上下文提取与增强配置。
// 其中 Debounce / EnableLazyLoading / ExtractionTimeout 由前端
// 提取协作方消费，此处只负责承载与传递。
type ContextConfig struct {
	// MaxContentElements 进入提示词的内容元素上限
	// 默认: 10
	MaxContentElements int `koanf:"max_content_elements"`
	// MaxVisualizations 可视化元素上限
	// 默认: 5
	MaxVisualizations int `koanf:"max_visualizations"`
	// MaxContextTokens 装配后上下文的 Token 上限，0 表示不限制
	MaxContextTokens int `koanf:"max_context_tokens"`
	// CacheTTL 上下文装配结果缓存时长
	// 默认: 30s
	CacheTTL time.Duration `koanf:"cache_ttl"`
	// ExtractionTimeout 快照提取超时
	ExtractionTimeout time.Duration `koanf:"extraction_timeout"`
	// Debounce 提取防抖间隔
	Debounce time.Duration `koanf:"debounce"`
	// EnableLazyLoading 是否启用懒加载提取
	EnableLazyLoading bool `koanf:"enable_lazy_loading"`
	// RespectPermissions 是否在评分前过滤受限元素
	RespectPermissions bool `koanf:"respect_permissions"`
	// AuditAccess 是否记录上下文访问审计
	AuditAccess bool `koanf:"audit_access"`
	// AuditDSN 审计数据库路径（sqlite DSN）
	AuditDSN string `koanf:"audit_dsn"`
}

// applyDefaults 应用聊天配置默认值
func (c *ChatConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetryAttempts == 0 {
		c.MaxRetryAttempts = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
}

// applyDefaults 应用上下文配置默认值
func (c *ContextConfig) applyDefaults() {
	if c.MaxContentElements == 0 {
		c.MaxContentElements = 10
	}
	if c.MaxVisualizations == 0 {
		c.MaxVisualizations = 5
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 30 * time.Second
	}
	if c.ExtractionTimeout == 0 {
		c.ExtractionTimeout = 5 * time.Second
	}
	if c.Debounce == 0 {
		c.Debounce = 300 * time.Millisecond
	}
}

// Validate 验证聊天配置
func (c *ChatConfig) Validate() error {
	if c.Model == "" {
		return errors.WrapError(errors.ErrInvalidConfig, "model is required")
	}
	if c.MaxRetryAttempts < 0 || c.MaxRetryAttempts > 10 {
		return errors.WrapError(errors.ErrInvalidConfig, "max_retry_attempts out of range")
	}
	return nil
}

// Validate 验证上下文配置
func (c *ContextConfig) Validate() error {
	if c.MaxContentElements < 0 {
		return errors.WrapError(errors.ErrInvalidConfig, "max_content_elements must not be negative")
	}
	return nil
}
