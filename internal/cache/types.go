package cache

import (
	"time"

	"github.com/inclusiveworks/inlint/internal/linter"
)

// CachedResult is the cached outcome of one full lint run. The catalog
// version is baked into the key, so a cached entry is always consistent
// with the rules that produced it.
type CachedResult struct {
	Result   linter.ScanResult `json:"result"`
	UsedLLM  bool              `json:"used_llm"`
	Notice   string            `json:"notice,omitempty"`
	CachedAt time.Time         `json:"cached_at"`
	TTL      int64             `json:"ttl"`
}

// Stats represents cache performance statistics
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	TotalKeys int64   `json:"total_keys"`
}
