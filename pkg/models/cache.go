package models

// CacheStats reports result cache counters for the life of the process.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// HitRate is the share of lookups served from the cache, in percent.
func (s CacheStats) HitRate() float64 {
	lookups := s.Hits + s.Misses
	if lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(lookups) * 100
}
