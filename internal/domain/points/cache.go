package points

import (
	"strconv"
	"strings"
	"sync"
)

const defaultCacheEntries = 1024

// Cache memoizes Build by (config, count). Returned tables are copies, so
// callers never share a backing array.
type Cache struct {
	mu         sync.RWMutex
	tables     map[string]Table
	maxEntries int
}

// NewCache returns a cache holding at most maxEntries tables. When full it is
// emptied before the next insert. maxEntries <= 0 uses a default.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	return &Cache{tables: make(map[string]Table), maxEntries: maxEntries}
}

// Build returns the same table as the package-level Build.
func (c *Cache) Build(cfg Config, count int) Table {
	if count <= 0 {
		return Table{}
	}
	cfg = cfg.Sanitize()
	key := cacheKey(cfg, count)

	c.mu.RLock()
	t, ok := c.tables[key]
	c.mu.RUnlock()
	if ok {
		return clone(t)
	}

	t = Build(cfg, count)
	c.mu.Lock()
	if len(c.tables) >= c.maxEntries {
		clear(c.tables)
	}
	c.tables[key] = t
	c.mu.Unlock()
	return clone(t)
}

// Len reports the number of memoized tables.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

func cacheKey(cfg Config, count int) string {
	var b strings.Builder
	b.WriteString(string(cfg.Mode))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(cfg.First, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(cfg.DecayPercent, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(count))
	if cfg.Mode == ModeManual {
		for _, v := range cfg.ManualTable {
			b.WriteByte('|')
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return b.String()
}

func clone(t Table) Table {
	out := make(Table, len(t))
	copy(out, t)
	return out
}
