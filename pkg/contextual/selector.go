package contextual

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/easyops/dashchat-go/pkg/snapshot"
)

// ScoredElement 是一次选择过程中的临时评分结果，不做持久化。
type ScoredElement struct {
	Element snapshot.ContentElement
	Score   float64
}

// Selector 定义按预算挑选内容元素的接口。
type Selector interface {
	// Select 返回按分数降序、数量不超过 maxElements 的元素子集。
	Select(elements []snapshot.ContentElement, query string, maxElements int) []snapshot.ContentElement
}

// BudgetSelector 使用 Scorer 挑选有序且大小受限的元素子集。
// 单个元素评分失败只会跳过该元素；评分器整体不可用时
// 降级为按原始顺序截取前 maxElements 个，保证调用方
// 总能拿到有界且不抛错的结果。
type BudgetSelector struct {
	scorer Scorer
}

// NewBudgetSelector 创建新的 BudgetSelector。
func NewBudgetSelector(scorer Scorer) *BudgetSelector {
	if scorer == nil {
		scorer = NewContentScorer(nil)
	}
	return &BudgetSelector{scorer: scorer}
}

// Select 返回按分数降序、数量不超过 maxElements 的元素子集。
// 同分元素保持快照中的原始顺序，确保输出确定。
func (s *BudgetSelector) Select(elements []snapshot.ContentElement, query string, maxElements int) []snapshot.ContentElement {
	if len(elements) == 0 || maxElements <= 0 {
		return nil
	}

	scored := make([]ScoredElement, 0, len(elements))
	failed := 0

	for i := range elements {
		score, err := s.scoreSafe(&elements[i], query)
		if err != nil {
			failed++
			slog.Warn("element scoring failed, skipping element",
				"element_id", elements[i].ID,
				"error", err,
			)
			continue
		}
		scored = append(scored, ScoredElement{Element: elements[i], Score: score})
	}

	// 评分器整体不可用：按原始顺序截取
	if failed == len(elements) {
		slog.Warn("all elements failed scoring, falling back to original order",
			"count", len(elements),
		)
		if len(elements) > maxElements {
			elements = elements[:maxElements]
		}
		result := make([]snapshot.ContentElement, len(elements))
		copy(result, elements)
		return result
	}

	// 稳定排序：同分保持快照原始顺序
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > maxElements {
		scored = scored[:maxElements]
	}

	result := make([]snapshot.ContentElement, len(scored))
	for i, se := range scored {
		result[i] = se.Element
	}
	return result
}

// scoreSafe 执行评分并把 panic 转换为错误，
// 单个元素的数据异常不应让整次选择失败。
func (s *BudgetSelector) scoreSafe(element *snapshot.ContentElement, query string) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scorer panic: %v", r)
		}
	}()
	return s.scorer.Score(element, query), nil
}

// 编译时接口检查
var _ Selector = (*BudgetSelector)(nil)
