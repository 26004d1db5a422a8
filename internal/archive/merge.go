package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/utilitarian/spot-archive/internal/model"
)

// Policy selects how a new series merges with a stored partition.
type Policy string

const (
	// PolicyUnion computes the set union under (timestamp, value) equality.
	// Re-running identical input changes nothing, but a corrected value at an
	// existing timestamp is added alongside the old record. This is the
	// archive's historical behavior.
	PolicyUnion Policy = "union"

	// PolicyLatestWins keys the partition by timestamp alone; an incoming
	// point replaces any stored point at the same timestamp.
	PolicyLatestWins Policy = "latest-wins"
)

// ParsePolicy maps a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyUnion, PolicyLatestWins:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", s)
	}
}

// Merge combines a stored partition with newly reconciled points under the
// given policy. The result is sorted by timestamp (ties by value, so union
// output is deterministic).
func Merge(existing, incoming []model.PricePoint, policy Policy) []model.PricePoint {
	type recordKey struct {
		ts    int64
		value string
	}

	var out []model.PricePoint
	switch policy {
	case PolicyLatestWins:
		byTS := make(map[int64]model.PricePoint, len(existing)+len(incoming))
		order := make([]int64, 0, len(existing)+len(incoming))
		for _, p := range existing {
			key := p.Timestamp.UnixNano()
			if _, ok := byTS[key]; !ok {
				order = append(order, key)
			}
			byTS[key] = p
		}
		for _, p := range incoming {
			key := p.Timestamp.UnixNano()
			if _, ok := byTS[key]; !ok {
				order = append(order, key)
			}
			byTS[key] = p
		}
		out = make([]model.PricePoint, 0, len(order))
		for _, key := range order {
			out = append(out, byTS[key])
		}

	default: // PolicyUnion
		seen := make(map[recordKey]struct{}, len(existing)+len(incoming))
		out = make([]model.PricePoint, 0, len(existing)+len(incoming))
		for _, p := range append(append([]model.PricePoint{}, existing...), incoming...) {
			key := recordKey{ts: p.Timestamp.UnixNano(), value: p.Value}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, p)
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if !out[a].Timestamp.Equal(out[b].Timestamp) {
			return out[a].Timestamp.Before(out[b].Timestamp)
		}
		return out[a].Value < out[b].Value
	})
	return out
}

// Merger applies reconciled series to the archive at every partition
// granularity. Writes to the same partition are serialized by a lock keyed
// on area, granularity, and period, since the store's read-modify-write is
// not safe against concurrent merges.
type Merger struct {
	store  Store
	policy Policy
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMerger creates a Merger using the given store and policy.
func NewMerger(store Store, policy Policy, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{
		store:  store,
		policy: policy,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// MergeAll merges the series into the day, month, and year partitions it
// touches.
func (m *Merger) MergeAll(ctx context.Context, area string, series model.ReconciledSeries) error {
	groupings := []struct {
		granularity Granularity
		groups      map[string][]model.PricePoint
	}{
		{GranularityYear, GroupByYear(series)},
		{GranularityMonth, GroupByMonth(series)},
		{GranularityDay, GroupByDay(series)},
	}

	for _, g := range groupings {
		for key, points := range g.groups {
			if err := m.mergePartition(ctx, area, g.granularity, key, points); err != nil {
				return err
			}
		}
	}
	return nil
}

// MergeLatest rewrites the rolling latest partition with the series' points
// for today and tomorrow (market time). Days not yet published simply
// shorten the window.
func (m *Merger) MergeLatest(ctx context.Context, area string, series model.ReconciledSeries, now time.Time) error {
	today := now.In(model.MarketZone).Format(dayKeyFormat)
	tomorrow := now.In(model.MarketZone).AddDate(0, 0, 1).Format(dayKeyFormat)

	grouped := GroupByDay(series)
	latest := append(append([]model.PricePoint{}, grouped[today]...), grouped[tomorrow]...)
	sort.Slice(latest, func(a, b int) bool {
		return latest[a].Timestamp.Before(latest[b].Timestamp)
	})

	m.logger.Info("updating latest partition", "area", area, "points", len(latest))

	unlock := m.lock(area, GranularityLatest, LatestKey)
	defer unlock()

	if err := m.store.Write(ctx, area, GranularityLatest, LatestKey, latest); err != nil {
		return err
	}
	return nil
}

func (m *Merger) mergePartition(ctx context.Context, area string, g Granularity, key string, incoming []model.PricePoint) error {
	unlock := m.lock(area, g, key)
	defer unlock()

	existing, err := m.store.Read(ctx, area, g, key)
	if err != nil {
		return err
	}

	merged := Merge(existing, incoming, m.policy)

	m.logger.Info("merging partition",
		"area", area,
		"granularity", g,
		"key", key,
		"stored", len(existing),
		"incoming", len(incoming),
		"merged", len(merged),
	)

	return m.store.Write(ctx, area, g, key, merged)
}

func (m *Merger) lock(area string, g Granularity, key string) func() {
	name := area + "/" + string(g) + "/" + key
	m.mu.Lock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
