// Package audit 记录上下文访问审计。
//
// 当配置开启 audit_access 时，每次有快照元素进入提示词都会
// 留下一条审计记录：哪个会话、哪个应用、哪些元素。记录的是
// 访问元数据而非对话内容，不承担对话历史持久化职责。
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record 一条上下文访问审计记录
type Record struct {
	// ConversationID 会话标识
	ConversationID string
	// App 快照所属应用
	App string
	// Page 快照页面标题
	Page string
	// ElementIDs 进入提示词的元素 ID 列表
	ElementIDs []string
	// AccessedAt 访问时间
	AccessedAt time.Time
}

// Recorder 定义审计记录接口
type Recorder interface {
	// Record 写入一条审计记录
	Record(ctx context.Context, rec Record) error
	// Close 关闭底层存储
	Close() error
}

// SQLiteRecorder 基于 SQLite 的审计记录器
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder 创建 SQLite 审计记录器
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init audit schema: %w", err)
	}

	return r, nil
}

// initSchema 初始化表结构
func (r *SQLiteRecorder) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS context_access (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		app TEXT,
		page TEXT,
		element_ids TEXT,
		accessed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_context_access_conversation ON context_access(conversation_id);
	CREATE INDEX IF NOT EXISTS idx_context_access_time ON context_access(accessed_at);
	`

	_, err := r.db.Exec(query)
	return err
}

// Record 写入一条审计记录
func (r *SQLiteRecorder) Record(ctx context.Context, rec Record) error {
	accessedAt := rec.AccessedAt
	if accessedAt.IsZero() {
		accessedAt = time.Now()
	}

	query := `
	INSERT INTO context_access (conversation_id, app, page, element_ids, accessed_at)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ConversationID,
		rec.App,
		rec.Page,
		strings.Join(rec.ElementIDs, ","),
		accessedAt.UnixMilli(),
	)
	return err
}

// ListByConversation 返回某会话的全部审计记录，按时间升序。
func (r *SQLiteRecorder) ListByConversation(ctx context.Context, conversationID string) ([]Record, error) {
	query := `
	SELECT conversation_id, app, page, element_ids, accessed_at
	FROM context_access WHERE conversation_id = ? ORDER BY accessed_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var elementIDs string
		var accessedAt int64
		if err := rows.Scan(&rec.ConversationID, &rec.App, &rec.Page, &elementIDs, &accessedAt); err != nil {
			return nil, err
		}
		if elementIDs != "" {
			rec.ElementIDs = strings.Split(elementIDs, ",")
		}
		rec.AccessedAt = time.UnixMilli(accessedAt)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close 关闭底层存储
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

// NoopRecorder 空实现审计记录器，审计关闭时使用
type NoopRecorder struct{}

// NewNoopRecorder 创建空实现审计记录器
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

// Record 丢弃记录
func (r *NoopRecorder) Record(ctx context.Context, rec Record) error { return nil }

// Close 无操作
func (r *NoopRecorder) Close() error { return nil }

// 编译时接口检查
var _ Recorder = (*SQLiteRecorder)(nil)
var _ Recorder = (*NoopRecorder)(nil)
