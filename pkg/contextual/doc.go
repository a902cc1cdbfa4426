// Package contextual 实现上下文增强流水线的选择与装配阶段。
//
// 流水线分三步：Scorer 依据用户问题为快照中的每个内容元素打分，
// BudgetSelector 据此挑出有序且数量受限的子集，
// Assembler 将子集与页面/过滤器/时间范围/操作元数据合并为
// 单条文本增强，与用户原始消息一起发往聊天后端。
package contextual
