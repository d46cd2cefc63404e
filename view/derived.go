package view

import (
	"math"
	"sort"
	"strings"
)

// recentViews returns up to RecentLimit views used within RecentWindow of
// now, most recent first.
func recentViews(views []SavedView, now int64) []SavedView {
	cutoff := now - RecentWindow.Milliseconds()
	out := make([]SavedView, 0, RecentLimit)
	for _, v := range views {
		if v.LastUsed >= cutoff {
			out = append(out, v.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUsed > out[j].LastUsed
	})
	if len(out) > RecentLimit {
		out = out[:RecentLimit]
	}
	return out
}

func activeView(views []SavedView, activeID string) *SavedView {
	if activeID == "" {
		return nil
	}
	for _, v := range views {
		if v.ID == activeID {
			c := v.clone()
			return &c
		}
	}
	return nil
}

func statsFor(count int) StorageStats {
	return StorageStats{
		Count:       count,
		Limit:       StorageLimit,
		PercentFull: int(math.Round(100 * float64(count) / float64(StorageLimit))),
	}
}

// rankViews orders by usage count, then recency, then name.
func rankViews(views []SavedView) []SavedView {
	out := cloneViews(views)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.UsageCount != b.UsageCount {
			return a.UsageCount > b.UsageCount
		}
		if a.LastUsed != b.LastUsed {
			return a.LastUsed > b.LastUsed
		}
		return a.Name < b.Name
	})
	return out
}

// Ranked lists every view, most used first.
func (s *Store) Ranked() []SavedView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankViews(s.views)
}

// Search returns the ranked views whose name or description contains query,
// ignoring case. An empty query matches everything.
func (s *Store) Search(query string) []SavedView {
	ranked := s.Ranked()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ranked
	}
	out := ranked[:0]
	for _, v := range ranked {
		if strings.Contains(strings.ToLower(v.Name), q) ||
			strings.Contains(strings.ToLower(v.Description), q) {
			out = append(out, v)
		}
	}
	return out
}
