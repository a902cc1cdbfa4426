package snapshot

// ElementType 表示内容元素的类型
type ElementType string

const (
	// ElementVisualization 可视化图表
	ElementVisualization ElementType = "visualization"
	// ElementDataTable 数据表格
	ElementDataTable ElementType = "data_table"
	// ElementSearchResults 搜索结果
	ElementSearchResults ElementType = "search_results"
	// ElementMetric 单值指标
	ElementMetric ElementType = "metric"
	// ElementText 文本块
	ElementText ElementType = "text"
	// ElementForm 表单
	ElementForm ElementType = "form"
	// ElementControl 控件
	ElementControl ElementType = "control"
	// ElementNavigation 导航元素
	ElementNavigation ElementType = "navigation"
	// ElementOther 其他
	ElementOther ElementType = "other"
)

// Visibility 表示元素的可见状态
type Visibility string

const (
	// VisibilityVisible 完全可见
	VisibilityVisible Visibility = "visible"
	// VisibilityHidden 不可见
	VisibilityHidden Visibility = "hidden"
	// VisibilityPartial 部分可见
	VisibilityPartial Visibility = "partially-visible"
	// VisibilityLoading 加载中
	VisibilityLoading Visibility = "loading"
)

// Position 描述元素在页面上的位置与尺寸
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ChartSeries 描述图表中的一条序列
type ChartSeries struct {
	// Name 序列名称
	Name string `json:"name,omitempty"`
	// PointCount 数据点数量
	PointCount int `json:"point_count,omitempty"`
}

// TableData 描述表格数据
type TableData struct {
	// Headers 表头
	Headers []string `json:"headers,omitempty"`
	// RowCount 数据行数
	RowCount int `json:"row_count,omitempty"`
}

// MetricData 描述单值指标数据
type MetricData struct {
	// Value 指标值
	Value string `json:"value,omitempty"`
	// Unit 单位
	Unit string `json:"unit,omitempty"`
	// Trend 趋势（如 "up"、"down"、"flat"）
	Trend string `json:"trend,omitempty"`
}

// ElementData 是内容元素的类型相关负载。
// 不同元素类型只会填充其中的一部分字段。
type ElementData struct {
	// Series 图表序列（visualization）
	Series []ChartSeries `json:"series,omitempty"`
	// Table 表格数据（data_table / search_results）
	Table *TableData `json:"table,omitempty"`
	// Metric 指标数据（metric）
	Metric *MetricData `json:"metric,omitempty"`
	// Text 文本内容（text）
	Text string `json:"text,omitempty"`
}

// ContentElement 表示快照中的一个可见内容单元。
// 加入 Snapshot 后即视为只读。
type ContentElement struct {
	// ID 元素标识
	ID string `json:"id"`
	// Type 元素类型
	Type ElementType `json:"type"`
	// Title 元素标题
	Title string `json:"title"`
	// Description 元素描述（可选）
	Description string `json:"description,omitempty"`
	// Data 类型相关的数据负载
	Data ElementData `json:"data,omitempty"`
	// Position 页面位置
	Position Position `json:"position"`
	// Visibility 可见状态
	Visibility Visibility `json:"visibility"`
	// InViewport 是否在当前视口内
	InViewport bool `json:"in_viewport,omitempty"`
	// Metadata 元数据
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// HasChartData 判断元素是否携带图表序列数据
func (e *ContentElement) HasChartData() bool {
	return len(e.Data.Series) > 0
}

// HasTableData 判断元素是否携带表格数据
func (e *ContentElement) HasTableData() bool {
	return e.Data.Table != nil && e.Data.Table.RowCount > 0
}

// HasTrend 判断元素是否携带趋势信息
func (e *ContentElement) HasTrend() bool {
	return e.Data.Metric != nil && e.Data.Metric.Trend != ""
}

// CarriesData 判断元素是否承载数据内容而非页面骨架。
// 权限关闭数据查看时，这类元素不进入提示词。
func (e *ContentElement) CarriesData() bool {
	switch e.Type {
	case ElementVisualization, ElementDataTable, ElementSearchResults, ElementMetric:
		return true
	}
	return e.HasChartData() || e.HasTableData() || e.Data.Metric != nil
}

// TotalPoints 返回图表全部序列的数据点总数
func (e *ContentElement) TotalPoints() int {
	total := 0
	for _, s := range e.Data.Series {
		total += s.PointCount
	}
	return total
}
