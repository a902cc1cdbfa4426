package chat

import (
	"encoding/json"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/easyops/dashchat-go/pkg/snapshot"
)

// augmentCache 缓存装配好的增强文本，使同一快照上的快速
// 重新生成不必重复评分与装配。条目按 TTL 过期。
type augmentCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]augmentEntry
}

type augmentEntry struct {
	value      string
	elementIDs []string
	expires    time.Time
}

func newAugmentCache(ttl time.Duration) *augmentCache {
	return &augmentCache{
		ttl:     ttl,
		entries: make(map[string]augmentEntry),
	}
}

func (c *augmentCache) get(key string) (string, []string, bool) {
	if c.ttl <= 0 {
		return "", nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", nil, false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return "", nil, false
	}
	return entry.value, entry.elementIDs, true
}

func (c *augmentCache) put(key, value string, elementIDs []string) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = augmentEntry{
		value:      value,
		elementIDs: elementIDs,
		expires:    time.Now().Add(c.ttl),
	}
}

// cacheKey 由会话、用户消息与快照指纹构成。
func cacheKey(conversationID, userMessage string, snap *snapshot.Snapshot) string {
	h := fnv.New64a()
	h.Write([]byte(conversationID))
	h.Write([]byte{0})
	h.Write([]byte(userMessage))
	h.Write([]byte{0})
	if raw, err := json.Marshal(snap); err == nil {
		h.Write(raw)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
