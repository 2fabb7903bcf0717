// Package perf keeps a bounded in-memory record of request and query timings
// for the admin performance endpoint.
package perf

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes request vs query entries.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is one timing sample.
type Entry struct {
	Kind       EntryKind
	Key        string // route pattern for requests, operation for queries
	StatusCode int    // 0 for queries
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer of timing entries. When full the
// oldest entries are overwritten. Aggregation only happens in Snapshot.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	total   int64
}

// NewCollector creates a collector holding up to size entries.
// POST: size <= 0 falls back to DefaultRingSize
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when the buffer is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.next] = e
	c.next = (c.next + 1) % len(c.entries)
	c.total++
	c.mu.Unlock()
}

// TotalRecorded returns how many entries were ever recorded.
func (c *Collector) TotalRecorded() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Snapshot holds aggregated timings.
type Snapshot struct {
	Since          time.Time `json:"since"`
	TotalRecorded  int64     `json:"totalRecorded"`
	Requests       int       `json:"requests"`
	RequestP50Ms   float64   `json:"requestP50Ms"`
	RequestP95Ms   float64   `json:"requestP95Ms"`
	RequestP99Ms   float64   `json:"requestP99Ms"`
	ServerErrors   int       `json:"serverErrors"`
	SlowestRoutes  []KeyStat `json:"slowestRoutes"`
	SlowestQueries []KeyStat `json:"slowestQueries"`
}

// KeyStat aggregates the samples for one route or query operation.
type KeyStat struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	AvgMs   float64 `json:"avgMs"`
	MaxMs   float64 `json:"maxMs"`
	totalMs float64
}

func (s *KeyStat) add(ms float64) {
	s.Count++
	s.totalMs += ms
	s.MaxMs = max(s.MaxMs, ms)
}

// Snapshot aggregates entries recorded at or after since and returns the
// topN slowest routes and queries by average duration.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := slices.Clone(c.entries)
	total := c.total
	c.mu.Unlock()

	snap := Snapshot{Since: since, TotalRecorded: total}
	var durations []float64
	routes := map[string]*KeyStat{}
	queries := map[string]*KeyStat{}

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		stats := queries
		if e.Kind == KindRequest {
			stats = routes
			durations = append(durations, e.DurationMs)
			if e.StatusCode >= 500 {
				snap.ServerErrors++
			}
		}
		s, ok := stats[e.Key]
		if !ok {
			s = &KeyStat{Key: e.Key}
			stats[e.Key] = s
		}
		s.add(e.DurationMs)
	}

	snap.Requests = len(durations)
	snap.SlowestRoutes = slowest(routes, topN)
	snap.SlowestQueries = slowest(queries, topN)
	if len(durations) > 0 {
		slices.Sort(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
		snap.RequestP99Ms = percentile(durations, 99)
	}
	return snap
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	idx := p / 100 * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func slowest(stats map[string]*KeyStat, n int) []KeyStat {
	list := make([]KeyStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.totalMs / float64(s.Count)
		list = append(list, *s)
	}
	slices.SortFunc(list, func(a, b KeyStat) int {
		if c := cmp.Compare(b.AvgMs, a.AvgMs); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}
