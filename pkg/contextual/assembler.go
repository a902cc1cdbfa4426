package contextual

import (
	"fmt"
	"strings"

	"github.com/easyops/dashchat-go/pkg/snapshot"
)

// Assembler 将选中的内容元素与页面元数据装配为一条文本增强。
//
// 分段顺序固定：页面 → 内容 → 过滤器 → 时间范围 → 最近操作，
// 保证模型总是先收到结构化上下文、再收到对话内容。
// 没有任何分段可产出时原样返回用户消息，绝不注入空模板。
type Assembler struct {
	config *Config
}

// NewAssembler 创建新的 Assembler。
func NewAssembler(config *Config) *Assembler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Assembler{config: config}
}

// Assemble 合并用户消息、快照元数据与选中元素。
// selected 是 BudgetSelector 的输出；快照为空或没有可渲染
// 分段时返回的字符串与 userMessage 完全一致。
func (a *Assembler) Assemble(userMessage string, snap *snapshot.Snapshot, selected []snapshot.ContentElement) string {
	if snap == nil {
		return userMessage
	}

	contentLines := a.renderContentLines(selected)
	sections := a.renderSections(snap, contentLines)
	if len(sections) == 0 {
		return userMessage
	}

	result := a.render(snap, sections, userMessage)

	// 超出 Token 预算时从尾部裁剪内容行后重新装配
	budget := a.config.MaxContextTokens
	if budget > 0 {
		counter := a.config.GetTokenCounter()
		for counter.Count(result) > budget && len(contentLines) > 0 {
			contentLines = contentLines[:len(contentLines)-1]
			sections = a.renderSections(snap, contentLines)
			if len(sections) == 0 {
				return userMessage
			}
			result = a.render(snap, sections, userMessage)
		}
	}

	return result
}

// renderSections 按固定顺序产出分段，跳过无数据的分段。
func (a *Assembler) renderSections(snap *snapshot.Snapshot, contentLines []string) []string {
	var sections []string

	if section := a.renderPage(&snap.Page); section != "" {
		sections = append(sections, section)
	}
	if len(contentLines) > 0 {
		sections = append(sections, "Visible content:\n"+strings.Join(contentLines, "\n"))
	}
	if section := a.renderFilters(snap.Filters); section != "" {
		sections = append(sections, section)
	}
	if snap.TimeRange != nil && snap.TimeRange.Display != "" {
		sections = append(sections, "Time range: "+snap.TimeRange.Display)
	}
	if section := a.renderActions(snap.UserActions); section != "" {
		sections = append(sections, section)
	}

	return sections
}

// render 套用固定信封：应用名开场、分段、用户问题、收尾指令。
func (a *Assembler) render(snap *snapshot.Snapshot, sections []string, userMessage string) string {
	var b strings.Builder

	app := snap.Page.App
	if app == "" {
		app = snap.Page.Title
	}
	if app != "" {
		b.WriteString("The user is currently working in the " + app + " application. ")
	}
	b.WriteString("Below is a description of what is visible on their screen.\n\n")
	b.WriteString(strings.Join(sections, "\n\n"))
	b.WriteString("\n\nUser question: " + userMessage)
	b.WriteString("\n\nAnswer the question, using the visible dashboard context above when it is relevant.")

	return b.String()
}

// renderPage 渲染页面分段：应用名、标题、面包屑。
func (a *Assembler) renderPage(page *snapshot.Page) string {
	if page.App == "" && page.Title == "" && len(page.Breadcrumbs) == 0 {
		return ""
	}

	var lines []string
	if page.Title != "" {
		if page.App != "" {
			lines = append(lines, fmt.Sprintf("Page: %s (app: %s)", page.Title, page.App))
		} else {
			lines = append(lines, "Page: "+page.Title)
		}
	} else if page.App != "" {
		lines = append(lines, "App: "+page.App)
	}
	if len(page.Breadcrumbs) > 0 {
		lines = append(lines, "Path: "+strings.Join(page.Breadcrumbs, " > "))
	}

	return strings.Join(lines, "\n")
}

// renderContentLines 渲染内容分段的编号行。
// 格式：`N. <title> (<type>)[: <description>][ - <数据摘要>]`
func (a *Assembler) renderContentLines(selected []snapshot.ContentElement) []string {
	if len(selected) == 0 {
		return nil
	}

	lines := make([]string, 0, len(selected))
	for i, element := range selected {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s (%s)", i+1, element.Title, element.Type)
		if element.Description != "" {
			b.WriteString(": " + element.Description)
		}
		if clause := dataClause(&element); clause != "" {
			b.WriteString(" - " + clause)
		}
		lines = append(lines, b.String())
	}
	return lines
}

// dataClause 概述元素携带的数据量。
func dataClause(element *snapshot.ContentElement) string {
	switch {
	case element.HasChartData():
		return fmt.Sprintf("chart with %d data points", element.TotalPoints())
	case element.HasTableData():
		return fmt.Sprintf("table with %d rows", element.Data.Table.RowCount)
	case element.Data.Metric != nil && element.Data.Metric.Value != "":
		m := element.Data.Metric
		clause := "current value " + m.Value
		if m.Unit != "" {
			clause += " " + m.Unit
		}
		if m.Trend != "" {
			clause += ", trending " + m.Trend
		}
		return clause
	default:
		return ""
	}
}

// renderFilters 渲染过滤器分段，只包含启用的过滤器。
func (a *Assembler) renderFilters(filters []snapshot.Filter) string {
	var lines []string
	for _, f := range filters {
		if !f.Enabled {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s %s %s", f.Field, f.Operator, f.Value))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Active filters:\n" + strings.Join(lines, "\n")
}

// renderActions 渲染最近操作分段，最多保留最后 MaxActions 条。
func (a *Assembler) renderActions(actions []snapshot.Action) string {
	if len(actions) == 0 {
		return ""
	}

	max := a.config.MaxActions
	if max <= 0 {
		max = 5
	}
	if len(actions) > max {
		actions = actions[len(actions)-max:]
	}

	lines := make([]string, 0, len(actions))
	for _, action := range actions {
		line := "- " + action.Type
		if action.Details != "" {
			line += ": " + action.Details
		}
		lines = append(lines, line)
	}
	return "Recent actions:\n" + strings.Join(lines, "\n")
}
