package cache

import "time"

// Info summarizes the cache for the stats request
type Info struct {
	Entries     int           `json:"entries"`
	Completions int           `json:"completions"`
	Capacity    int           `json:"capacity"`
	TTL         time.Duration `json:"ttl"`
	Hits        uint64        `json:"hits"`
	Misses      uint64        `json:"misses"`
	Evictions   uint64        `json:"evictions"`
	HitRatio    float64       `json:"hit_ratio"`
	Oldest      time.Time     `json:"oldest,omitzero"`
}

// GetCacheInfo returns information about the cache contents
func GetCacheInfo(c *Cache) *Info {
	stats := c.Stats()
	result := &Info{
		Entries:   stats.Entries,
		Capacity:  stats.Capacity,
		TTL:       stats.TTL,
		Hits:      stats.Hits,
		Misses:    stats.Misses,
		Evictions: stats.Evictions,
	}

	if total := stats.Hits + stats.Misses; total > 0 {
		result.HitRatio = float64(stats.Hits) / float64(total)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.lru.Values() {
		result.Completions += len(entry.Completions)
		if result.Oldest.IsZero() || entry.Created.Before(result.Oldest) {
			result.Oldest = entry.Created
		}
	}

	return result
}
