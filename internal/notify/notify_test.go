package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/utilitarian/spot-archive/internal/archive"
	"github.com/utilitarian/spot-archive/internal/model"
)

type latestStore struct {
	points []model.PricePoint
}

func (s *latestStore) Read(_ context.Context, _ string, g archive.Granularity, _ string) ([]model.PricePoint, error) {
	if g != archive.GranularityLatest {
		return nil, nil
	}
	return s.points, nil
}

func (s *latestStore) Write(context.Context, string, archive.Granularity, string, []model.PricePoint) error {
	return nil
}

func (s *latestStore) ReadStats(context.Context, string, string) ([]model.DayStatistics, error) {
	return nil, nil
}

func (s *latestStore) WriteStats(context.Context, string, string, []model.DayStatistics) error {
	return nil
}

// fakeService emulates the subscription service's admin API in memory.
type fakeService struct {
	t       *testing.T
	cursors map[string]string
	subs    []webpush.Subscription
	deleted []string
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/ts/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		area := strings.TrimPrefix(r.URL.Path, "/admin/ts/")
		switch r.Method {
		case http.MethodGet:
			ts, ok := f.cursors[area]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"timestamp": ts})
		case http.MethodPut:
			var body struct {
				Timestamp string `json:"timestamp"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.cursors[area] = body.Timestamp
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/admin/subs", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("zone") == "" {
			f.t.Error("subs request missing zone parameter")
		}
		json.NewEncoder(w).Encode(f.subs)
	})
	mux.HandleFunc("/subscribe/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.deleted = append(f.deleted, strings.TrimPrefix(r.URL.Path, "/subscribe/"))
	})
	return mux
}

type fakePush struct {
	statuses []int
	sent     []string
}

func (f *fakePush) Send(_ context.Context, payload []byte, sub *webpush.Subscription) (int, error) {
	f.sent = append(f.sent, sub.Endpoint)
	status := http.StatusCreated
	if len(f.statuses) > 0 {
		status = f.statuses[0]
		f.statuses = f.statuses[1:]
	}
	return status, nil
}

func marketTime(day string, hour int) time.Time {
	ts, _ := time.ParseInLocation("2006-01-02", day, model.MarketZone)
	return ts.Add(time.Duration(hour) * time.Hour)
}

func newTestNotifier(t *testing.T, svc *fakeService, store *latestStore, push *fakePush) *Notifier {
	t.Helper()
	server := httptest.NewServer(svc.handler())
	t.Cleanup(server.Close)
	return NewNotifier(store, NewServiceClient(server.URL, "secret"), push, nil)
}

func TestProcessAreaSeedsCursor(t *testing.T) {
	svc := &fakeService{t: t, cursors: map[string]string{}}
	store := &latestStore{points: []model.PricePoint{
		{Timestamp: marketTime("2025-06-15", 0), Value: "10.0"},
		{Timestamp: marketTime("2025-06-16", 23), Value: "12.0"},
	}}
	push := &fakePush{}

	n := newTestNotifier(t, svc, store, push)
	if err := n.ProcessArea(context.Background(), "SE3"); err != nil {
		t.Fatalf("ProcessArea: %v", err)
	}

	if len(push.sent) != 0 {
		t.Errorf("seeding run sent %d pushes, want 0", len(push.sent))
	}
	want := marketTime("2025-06-16", 23).Format(time.RFC3339)
	if svc.cursors["SE3"] != want {
		t.Errorf("cursor = %q, want %q", svc.cursors["SE3"], want)
	}
}

func TestProcessAreaNoNewData(t *testing.T) {
	current := marketTime("2025-06-16", 23).Format(time.RFC3339)
	svc := &fakeService{t: t, cursors: map[string]string{"SE3": current}}
	store := &latestStore{points: []model.PricePoint{
		{Timestamp: marketTime("2025-06-16", 23), Value: "12.0"},
	}}
	push := &fakePush{}

	n := newTestNotifier(t, svc, store, push)
	if err := n.ProcessArea(context.Background(), "SE3"); err != nil {
		t.Fatalf("ProcessArea: %v", err)
	}
	if len(push.sent) != 0 {
		t.Errorf("sent %d pushes, want 0", len(push.sent))
	}
}

func TestProcessAreaNotifiesSubscribers(t *testing.T) {
	old := marketTime("2025-06-15", 23).Format(time.RFC3339)
	svc := &fakeService{
		t:       t,
		cursors: map[string]string{"SE3": old},
		subs: []webpush.Subscription{
			{Endpoint: "https://push.example/one"},
			{Endpoint: "https://push.example/two"},
		},
	}
	store := &latestStore{points: []model.PricePoint{
		{Timestamp: marketTime("2025-06-16", 23), Value: "12.0"},
	}}
	push := &fakePush{}

	n := newTestNotifier(t, svc, store, push)
	if err := n.ProcessArea(context.Background(), "SE3"); err != nil {
		t.Fatalf("ProcessArea: %v", err)
	}

	if len(push.sent) != 2 {
		t.Fatalf("sent %d pushes, want 2", len(push.sent))
	}
	want := marketTime("2025-06-16", 23).Format(time.RFC3339)
	if svc.cursors["SE3"] != want {
		t.Errorf("cursor = %q, want %q", svc.cursors["SE3"], want)
	}
}

func TestProcessAreaPrunesGoneSubscription(t *testing.T) {
	old := marketTime("2025-06-15", 23).Format(time.RFC3339)
	stale := webpush.Subscription{Endpoint: "https://push.example/stale"}
	svc := &fakeService{
		t:       t,
		cursors: map[string]string{"SE3": old},
		subs:    []webpush.Subscription{stale, {Endpoint: "https://push.example/live"}},
	}
	store := &latestStore{points: []model.PricePoint{
		{Timestamp: marketTime("2025-06-16", 23), Value: "12.0"},
	}}
	push := &fakePush{statuses: []int{http.StatusGone, http.StatusCreated}}

	n := newTestNotifier(t, svc, store, push)
	if err := n.ProcessArea(context.Background(), "SE3"); err != nil {
		t.Fatalf("ProcessArea: %v", err)
	}

	if len(svc.deleted) != 1 {
		t.Fatalf("deleted %d subscriptions, want 1", len(svc.deleted))
	}
	if svc.deleted[0] != SubscriptionID(stale) {
		t.Errorf("deleted id = %q, want sha256 of stale endpoint", svc.deleted[0])
	}
}

func TestProcessAreaEmptyLatestSkips(t *testing.T) {
	svc := &fakeService{t: t, cursors: map[string]string{}}
	n := newTestNotifier(t, svc, &latestStore{}, &fakePush{})
	if err := n.ProcessArea(context.Background(), "SE3"); err != nil {
		t.Fatalf("ProcessArea: %v", err)
	}
	if len(svc.cursors) != 0 {
		t.Errorf("cursor written for empty area: %v", svc.cursors)
	}
}

func TestSubscriptionID(t *testing.T) {
	id := SubscriptionID(webpush.Subscription{Endpoint: "https://push.example/one"})
	if len(id) != 64 {
		t.Errorf("id length = %d, want 64 hex chars", len(id))
	}
}
