package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utilitarian/spot-archive/internal/archive"
	"github.com/utilitarian/spot-archive/internal/config"
	"github.com/utilitarian/spot-archive/internal/model"
	"github.com/utilitarian/spot-archive/internal/ratelimit"
	"github.com/utilitarian/spot-archive/internal/reconcile"
)

func TestMidnight(t *testing.T) {
	in := time.Date(2025, 6, 15, 13, 37, 42, 0, time.UTC)
	got := Midnight(in)

	want := time.Date(2025, 6, 15, 0, 0, 0, 0, model.MarketZone)
	if !got.Equal(want) {
		t.Errorf("Midnight(%v) = %v, want %v", in, got, want)
	}
	if got.Location() != model.MarketZone {
		t.Errorf("Midnight returned zone %v", got.Location())
	}
}

func TestMidnightCrossesDateLine(t *testing.T) {
	// 23:30 UTC is already the next day in market time.
	in := time.Date(2025, 6, 15, 23, 30, 0, 0, time.UTC)
	got := Midnight(in)

	want := time.Date(2025, 6, 16, 0, 0, 0, 0, model.MarketZone)
	if !got.Equal(want) {
		t.Errorf("Midnight(%v) = %v, want %v", in, got, want)
	}
}

type memStore struct {
	points map[string][]model.PricePoint
	stats  map[string][]model.DayStatistics
}

func newMemStore() *memStore {
	return &memStore{
		points: make(map[string][]model.PricePoint),
		stats:  make(map[string][]model.DayStatistics),
	}
}

func (s *memStore) Read(_ context.Context, area string, g archive.Granularity, key string) ([]model.PricePoint, error) {
	return s.points[area+"/"+string(g)+"/"+key], nil
}

func (s *memStore) Write(_ context.Context, area string, g archive.Granularity, key string, points []model.PricePoint) error {
	s.points[area+"/"+string(g)+"/"+key] = points
	return nil
}

func (s *memStore) ReadStats(_ context.Context, area, year string) ([]model.DayStatistics, error) {
	return s.stats[area+"/"+year], nil
}

func (s *memStore) WriteStats(_ context.Context, area, year string, stats []model.DayStatistics) error {
	s.stats[area+"/"+year] = stats
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedFetcher struct {
	fragments []model.RawFragment
}

func (f *fixedFetcher) FetchDayAheadPrices(context.Context, model.PriceArea, time.Time, time.Time) ([]model.RawFragment, error) {
	return f.fragments, nil
}

func newTestPipeline(store archive.Store, fetcher reconcile.Fetcher) *Pipeline {
	return &Pipeline{
		cfg:    &config.Config{Areas: []string{"SE3"}},
		logger: testLogger(),
		store:  store,
		merger: archive.NewMerger(store, archive.PolicyUnion, nil),
		engine: reconcile.New(ratelimit.New(60, time.Minute), fetcher, nil),
	}
}

func historicalFragment(day time.Time) model.RawFragment {
	return model.RawFragment{
		Currency:       "EUR",
		EnergyUnit:     "MWH",
		Interval:       model.Interval{Start: day, End: day.AddDate(0, 0, 1)},
		Resolution:     "PT60M",
		Classification: 1,
		DataPoints:     []model.DataPoint{{Position: 1, Price: decimal.NewFromInt(25)}},
	}
}

func TestBackfillLeavesLatestPartitionIntact(t *testing.T) {
	store := newMemStore()
	live := model.PricePoint{
		Timestamp: Midnight(time.Now()).Add(12 * time.Hour),
		Value:     "31.5",
	}
	if err := store.Write(context.Background(), "SE3", archive.GranularityLatest, archive.LatestKey, []model.PricePoint{live}); err != nil {
		t.Fatal(err)
	}

	day := time.Date(2019, 3, 4, 0, 0, 0, 0, model.MarketZone)
	p := newTestPipeline(store, &fixedFetcher{fragments: []model.RawFragment{historicalFragment(day)}})

	if err := p.Backfill(context.Background(), day, day.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("Backfill: %v", err)
	}

	archived, err := store.Read(context.Background(), "SE3", archive.GranularityDay, "2019-03-04")
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 24 {
		t.Errorf("day partition has %d points, want 24", len(archived))
	}

	latest, err := store.Read(context.Background(), "SE3", archive.GranularityLatest, archive.LatestKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 1 || !latest[0].Equal(live) {
		t.Fatalf("latest partition = %v, want the live point untouched", latest)
	}
}

func TestDayAheadIngestRefreshesLatestPartition(t *testing.T) {
	store := newMemStore()
	today := Midnight(time.Now())
	p := newTestPipeline(store, &fixedFetcher{fragments: []model.RawFragment{historicalFragment(today)}})

	if err := p.IngestDayAhead(context.Background()); err != nil {
		t.Fatalf("IngestDayAhead: %v", err)
	}

	latest, err := store.Read(context.Background(), "SE3", archive.GranularityLatest, archive.LatestKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 24 {
		t.Errorf("latest partition has %d points, want 24", len(latest))
	}
}

func TestDayAheadWindow(t *testing.T) {
	p := &Pipeline{cfg: &config.Config{
		Ingest: config.IngestConfig{DaysBehind: 4, DaysAhead: 2},
	}}

	now := time.Date(2025, 6, 15, 10, 0, 0, 0, model.MarketZone)
	start, end := p.DayAheadWindow(now)

	wantStart := time.Date(2025, 6, 11, 0, 0, 0, 0, model.MarketZone)
	wantEnd := time.Date(2025, 6, 18, 0, 0, 0, 0, model.MarketZone)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}
