package chat

import (
	"context"
	"sync"
)

// sessionRegistry 维护会话 ID 到取消句柄的映射。
//
// 这是流水线中唯一的共享可变状态：插入、查找与删除必须互相
// 原子，避免中止操作命中一个刚被同会话新请求替换掉的句柄。
// 一个会话 ID 同一时刻至多对应一个在途句柄；对同一 ID 并发
// 发起第二次请求会取消并替换前一次，而不是交织两条流的输出。
type sessionRegistry struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	cancel context.CancelFunc
	gen    uint64
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{entries: make(map[string]*sessionEntry)}
}

// register 为会话登记取消句柄，取消并替换同 ID 的既有句柄。
// 返回的代号用于 remove 时识别自己的登记。
func (r *sessionRegistry) register(conversationID string, cancel context.CancelFunc) uint64 {
	r.mu.Lock()

	var gen uint64 = 1
	prev := r.entries[conversationID]
	if prev != nil {
		gen = prev.gen + 1
	}
	r.entries[conversationID] = &sessionEntry{cancel: cancel, gen: gen}
	r.mu.Unlock()

	// 在锁外取消被替换的请求
	if prev != nil {
		prev.cancel()
	}

	return gen
}

// remove 删除自己的登记。代号不匹配说明句柄已被新请求替换，
// 此时不做任何事。
func (r *sessionRegistry) remove(conversationID string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[conversationID]; ok && entry.gen == gen {
		delete(r.entries, conversationID)
	}
}

// abort 取消并删除会话的在途句柄，返回是否存在该句柄。
func (r *sessionRegistry) abort(conversationID string) bool {
	r.mu.Lock()
	entry, ok := r.entries[conversationID]
	if ok {
		delete(r.entries, conversationID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	entry.cancel()
	return true
}

// active 返回在途请求数量。
func (r *sessionRegistry) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// has 返回会话是否存在在途句柄。
func (r *sessionRegistry) has(conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[conversationID]
	return ok
}
