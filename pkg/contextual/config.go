package contextual

import (
	"github.com/easyops/dashchat-go/pkg/snapshot"
)

// Config 保存评分与装配的全部调参数据。
// 权重是配置数据而非算法结构，可整表替换。
type Config struct {
	// TypeWeights 是元素类型的基础权重表。
	// 数据承载类型（图表、指标）应高于页面骨架（导航、控件）。
	TypeWeights map[snapshot.ElementType]float64

	// KeywordWeights 是独立于查询的关键词加权表。
	// 元素文本中出现这些词时追加固定加分。
	KeywordWeights map[string]float64

	// QueryTitleBonus 是完整查询命中标题时的固定加分。
	QueryTitleBonus float64

	// TokenBonus 是单个查询词元命中标题/描述时的加分。
	TokenBonus float64

	// MinTokenLen 是参与匹配的查询词元最小长度。
	MinTokenLen int

	// VisibleBonus 是元素完全可见时的加分。
	VisibleBonus float64

	// ViewportBonus 是元素位于视口内时的额外加分（可叠加）。
	ViewportBonus float64

	// ChartDataBonus 是存在图表序列数据时的基础加分。
	ChartDataBonus float64

	// ChartPointCap 是数据点数量贡献的上限。
	ChartPointCap float64

	// ChartPointScale 是每个数据点的贡献系数。
	ChartPointScale float64

	// TableRowBonus 是存在表格行时的基础加分。
	TableRowBonus float64

	// TableRowCap 是表格行数贡献的上限。
	TableRowCap float64

	// TableRowScale 是每行的贡献系数。
	TableRowScale float64

	// TrendBonus 是存在趋势元数据时的加分。
	TrendBonus float64

	// PageWidth / PageHeight 是典型页面尺寸，用于布局归一化。
	PageWidth  float64
	PageHeight float64

	// LayoutMaxBonus 是布局加分的上限，保持为总分的小部分。
	LayoutMaxBonus float64

	// MaxActions 是提示词中保留的最近操作条数。
	MaxActions int

	// MaxContextTokens 限制装配结果的 Token 规模，0 表示不限制。
	MaxContextTokens int

	// TokenCounter 是 Token 计数器，nil 时按需取默认实现。
	TokenCounter TokenCounter
}

// ConfigOption 配置 Config。
type ConfigOption func(*Config)

// WithTypeWeights 整表替换元素类型权重。
func WithTypeWeights(weights map[snapshot.ElementType]float64) ConfigOption {
	return func(c *Config) {
		c.TypeWeights = weights
	}
}

// WithKeywordWeights 整表替换关键词权重。
func WithKeywordWeights(weights map[string]float64) ConfigOption {
	return func(c *Config) {
		c.KeywordWeights = weights
	}
}

// WithQueryTitleBonus 设置完整查询命中标题的加分。
func WithQueryTitleBonus(bonus float64) ConfigOption {
	return func(c *Config) {
		c.QueryTitleBonus = bonus
	}
}

// WithTokenBonus 设置单词元命中的加分。
func WithTokenBonus(bonus float64) ConfigOption {
	return func(c *Config) {
		c.TokenBonus = bonus
	}
}

// WithMaxContextTokens 设置装配结果的 Token 预算。
func WithMaxContextTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxContextTokens = n
	}
}

// WithTokenCounter 设置 Token 计数器。
func WithTokenCounter(counter TokenCounter) ConfigOption {
	return func(c *Config) {
		c.TokenCounter = counter
	}
}

// WithMaxActions 设置保留的最近操作条数。
func WithMaxActions(n int) ConfigOption {
	return func(c *Config) {
		c.MaxActions = n
	}
}

// DefaultConfig 返回具有合理默认值的 Config。
// 默认权重保证数据承载类型排在页面骨架之前。
func DefaultConfig() *Config {
	return &Config{
		TypeWeights: map[snapshot.ElementType]float64{
			snapshot.ElementVisualization: 3.0,
			snapshot.ElementMetric:        3.0,
			snapshot.ElementDataTable:     2.5,
			snapshot.ElementSearchResults: 2.0,
			snapshot.ElementText:          1.5,
			snapshot.ElementForm:          1.0,
			snapshot.ElementControl:       0.5,
			snapshot.ElementNavigation:    0.2,
			snapshot.ElementOther:         0.5,
		},
		KeywordWeights: map[string]float64{
			"chart":   0.5,
			"graph":   0.5,
			"error":   0.8,
			"alert":   0.8,
			"trend":   0.5,
			"latency": 0.5,
			"rate":    0.3,
		},
		QueryTitleBonus:  2.0,
		TokenBonus:       0.5,
		MinTokenLen:      3,
		VisibleBonus:     1.0,
		ViewportBonus:    0.5,
		ChartDataBonus:   0.5,
		ChartPointCap:    0.5,
		ChartPointScale:  1.0 / 200.0,
		TableRowBonus:    0.3,
		TableRowCap:      0.5,
		TableRowScale:    1.0 / 100.0,
		TrendBonus:       0.4,
		PageWidth:        1920,
		PageHeight:       1080,
		LayoutMaxBonus:   0.5,
		MaxActions:       5,
		MaxContextTokens: 0,
	}
}

// NewConfig 使用给定的选项创建新的 Config。
func NewConfig(opts ...ConfigOption) *Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTokenCounter 返回配置的 Token 计数器或默认计数器。
func (c *Config) GetTokenCounter() TokenCounter {
	if c.TokenCounter != nil {
		return c.TokenCounter
	}
	return DefaultTokenCounter()
}
