package contextual

import (
	"strings"

	"github.com/easyops/dashchat-go/pkg/snapshot"
)

// Scorer 定义对单个内容元素进行评分的接口。
type Scorer interface {
	// Score 根据用户问题计算元素的相关性分数。
	// 实现必须是纯函数：相同输入恒定产生相同输出。
	Score(element *snapshot.ContentElement, query string) float64
}

// ContentScorer 按类型权重、可见性、关键词、数据丰富度
// 与页面布局五个因子累加评分。
type ContentScorer struct {
	config *Config
}

// NewContentScorer 创建新的 ContentScorer。
func NewContentScorer(config *Config) *ContentScorer {
	if config == nil {
		config = DefaultConfig()
	}
	return &ContentScorer{config: config}
}

// Score 根据用户问题计算元素的相关性分数。
func (s *ContentScorer) Score(element *snapshot.ContentElement, query string) float64 {
	score := s.config.TypeWeights[element.Type]
	score += s.visibilityBonus(element)
	score += s.keywordBonus(element, query)
	score += s.dataRichnessBonus(element)
	score += s.layoutBonus(element)
	return score
}

// visibilityBonus 计算可见性加分。完全可见与视口内可叠加。
func (s *ContentScorer) visibilityBonus(element *snapshot.ContentElement) float64 {
	var bonus float64
	if element.Visibility == snapshot.VisibilityVisible {
		bonus += s.config.VisibleBonus
	}
	if element.InViewport {
		bonus += s.config.ViewportBonus
	}
	return bonus
}

// keywordBonus 计算关键词相关性加分。
func (s *ContentScorer) keywordBonus(element *snapshot.ContentElement, query string) float64 {
	title := strings.ToLower(element.Title)
	description := strings.ToLower(element.Description)
	text := title + " " + description

	var bonus float64

	// 完整查询命中标题
	trimmedQuery := strings.ToLower(strings.TrimSpace(query))
	if trimmedQuery != "" && strings.Contains(title, trimmedQuery) {
		bonus += s.config.QueryTitleBonus
	}

	// 逐词元命中标题或描述
	for _, token := range strings.Fields(trimmedQuery) {
		if len(token) < s.config.MinTokenLen {
			continue
		}
		if strings.Contains(title, token) || strings.Contains(description, token) {
			bonus += s.config.TokenBonus
		}
	}

	// 与查询无关的关键词加权表
	for keyword, weight := range s.config.KeywordWeights {
		if strings.Contains(text, keyword) {
			bonus += weight
		}
	}

	return bonus
}

// dataRichnessBonus 计算数据丰富度加分。
// 各项贡献随数据量次线性增长并封顶，避免超大数据集仅凭体积胜出。
func (s *ContentScorer) dataRichnessBonus(element *snapshot.ContentElement) float64 {
	var bonus float64

	if element.HasChartData() {
		bonus += s.config.ChartDataBonus
		contribution := float64(element.TotalPoints()) * s.config.ChartPointScale
		if contribution > s.config.ChartPointCap {
			contribution = s.config.ChartPointCap
		}
		bonus += contribution
	}

	if element.HasTableData() {
		bonus += s.config.TableRowBonus
		contribution := float64(element.Data.Table.RowCount) * s.config.TableRowScale
		if contribution > s.config.TableRowCap {
			contribution = s.config.TableRowCap
		}
		bonus += contribution
	}

	if element.HasTrend() {
		bonus += s.config.TrendBonus
	}

	return bonus
}

// layoutBonus 计算布局加分：越靠页面上方、占屏面积越大得分越高，
// 按典型页面尺寸归一化，并封顶为总分中的一小部分。
func (s *ContentScorer) layoutBonus(element *snapshot.ContentElement) float64 {
	if s.config.PageWidth <= 0 || s.config.PageHeight <= 0 {
		return 0
	}

	// 页面位置：y=0 得满分，超出一屏后归零
	vertical := 1.0 - element.Position.Y/s.config.PageHeight
	if vertical < 0 {
		vertical = 0
	}
	if vertical > 1 {
		vertical = 1
	}

	// 占屏面积：以四分之一屏为满分基准
	pageArea := s.config.PageWidth * s.config.PageHeight
	area := element.Position.Width * element.Position.Height
	areaRatio := area / (pageArea / 4)
	if areaRatio < 0 {
		areaRatio = 0
	}
	if areaRatio > 1 {
		areaRatio = 1
	}

	return s.config.LayoutMaxBonus * (0.5*vertical + 0.5*areaRatio)
}

// 编译时接口检查
var _ Scorer = (*ContentScorer)(nil)
