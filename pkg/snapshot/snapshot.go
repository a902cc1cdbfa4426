// Package snapshot 定义仪表盘 UI 快照的数据模型。
//
// 快照由外部的内容提取协作方产出，描述用户当前所见的面板、
// 表格、过滤器与指标。快照在创建后不可变，由产生它的请求独占，
// 流水线消费完毕后即被丢弃。
package snapshot

import "time"

// Page 描述快照对应的页面信息
type Page struct {
	// URL 页面地址
	URL string `json:"url"`
	// Title 页面标题
	Title string `json:"title"`
	// App 所属应用名称
	App string `json:"app"`
	// Route 前端路由
	Route string `json:"route,omitempty"`
	// Breadcrumbs 面包屑路径
	Breadcrumbs []string `json:"breadcrumbs,omitempty"`
	// Metadata 页面级元数据
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Filter 描述页面上的一个过滤条件
type Filter struct {
	// Field 过滤字段
	Field string `json:"field"`
	// Operator 操作符（如 "=", "!=", "contains"）
	Operator string `json:"operator"`
	// Value 过滤值
	Value string `json:"value"`
	// Enabled 是否启用
	Enabled bool `json:"enabled"`
}

// TimeRange 描述页面当前的时间范围
type TimeRange struct {
	// From 起始时间
	From time.Time `json:"from,omitempty"`
	// To 结束时间
	To time.Time `json:"to,omitempty"`
	// Display 用于展示的范围描述（如 "Last 6 hours"）
	Display string `json:"display"`
}

// Action 描述用户最近的一次操作
type Action struct {
	// Type 操作类型（如 "click"、"filter_change"、"zoom"）
	Type string `json:"type"`
	// Details 操作详情
	Details string `json:"details,omitempty"`
	// Timestamp 操作时间
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Permissions 描述当前用户对快照内容的访问权限
type Permissions struct {
	// CanViewData 是否允许查看数据内容
	CanViewData bool `json:"can_view_data"`
	// RestrictedIDs 禁止进入提示词的元素 ID 列表
	RestrictedIDs []string `json:"restricted_ids,omitempty"`
}

// Navigation 描述页面导航状态
type Navigation struct {
	// CurrentSection 当前导航分区
	CurrentSection string `json:"current_section,omitempty"`
	// AvailableSections 可用导航分区
	AvailableSections []string `json:"available_sections,omitempty"`
}

// Snapshot 表示某一时刻的 UI 状态快照
type Snapshot struct {
	// Page 页面信息
	Page Page `json:"page"`
	// Content 可见内容元素
	Content []ContentElement `json:"content"`
	// Navigation 导航状态
	Navigation Navigation `json:"navigation,omitempty"`
	// Filters 过滤条件
	Filters []Filter `json:"filters,omitempty"`
	// TimeRange 时间范围（可选）
	TimeRange *TimeRange `json:"time_range,omitempty"`
	// UserActions 最近的用户操作
	UserActions []Action `json:"user_actions,omitempty"`
	// Permissions 访问权限
	Permissions Permissions `json:"permissions,omitempty"`
	// CapturedAt 快照产生时间
	CapturedAt time.Time `json:"captured_at,omitempty"`
}

// IsEmpty 判断快照是否没有任何可用内容
func (s *Snapshot) IsEmpty() bool {
	if s == nil {
		return true
	}
	return len(s.Content) == 0 &&
		len(s.Filters) == 0 &&
		s.TimeRange == nil &&
		len(s.UserActions) == 0 &&
		s.Page.App == "" && s.Page.Title == ""
}

// IsRestricted 判断元素 ID 是否被权限禁止
func (p *Permissions) IsRestricted(id string) bool {
	for _, restricted := range p.RestrictedIDs {
		if restricted == id {
			return true
		}
	}
	return false
}
