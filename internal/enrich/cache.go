package enrich

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileCache persists enrichment results across restarts so repeated
// predictions on the same topic do not hammer the upstream feeds. Corrupt or
// stale entries read as misses.
type fileCache struct {
	dir string
	ttl time.Duration
}

type cacheEntry struct {
	SavedAt time.Time       `json:"saved_at"`
	Payload json.RawMessage `json:"payload"`
}

func newFileCache(dir string, ttl time.Duration) *fileCache {
	if ttl <= 0 {
		ttl = 3 * time.Hour
	}
	return &fileCache{dir: dir, ttl: ttl}
}

func (c *fileCache) get(key string, out interface{}) bool {
	if c.dir == "" {
		return false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return false
	}
	if time.Since(entry.SavedAt) > c.ttl {
		return false
	}
	return json.Unmarshal(entry.Payload, out) == nil
}

func (c *fileCache) put(key string, value interface{}) {
	if c.dir == "" {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	entry, err := json.Marshal(cacheEntry{SavedAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	_ = os.WriteFile(c.path(key), entry, 0o644)
}

func (c *fileCache) path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, key)
	return filepath.Join(c.dir, safe+".json")
}
