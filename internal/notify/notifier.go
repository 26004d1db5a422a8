package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utilitarian/spot-archive/internal/archive"
	"github.com/utilitarian/spot-archive/internal/model"
)

// Payload is the JSON message delivered to subscribers.
type Payload struct {
	Zone      string `json:"zone"`
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	URL       string `json:"url"`
}

// Notifier checks each area's latest partition for prices newer than the
// stored cursor and pushes to that area's subscribers when it finds some.
type Notifier struct {
	store   archive.Store
	service *ServiceClient
	push    PushSender
	logger  *slog.Logger
}

func NewNotifier(store archive.Store, service *ServiceClient, push PushSender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		store:   store,
		service: service,
		push:    push,
		logger:  logger,
	}
}

// Run processes every area in turn. A failing area does not stop the rest;
// the first error is returned after all areas have been tried.
func (n *Notifier) Run(ctx context.Context, areas []string) error {
	var firstErr error
	for _, area := range areas {
		if err := n.ProcessArea(ctx, area); err != nil {
			n.logger.Error("notify run failed for area", "area", area, "err", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("area %s: %w", area, err)
			}
		}
	}
	return firstErr
}

// ProcessArea runs the freshness check for one area.
func (n *Notifier) ProcessArea(ctx context.Context, area string) error {
	points, err := n.store.Read(ctx, area, archive.GranularityLatest, archive.LatestKey)
	if err != nil {
		return fmt.Errorf("read latest partition: %w", err)
	}
	if len(points) == 0 {
		n.logger.Info("no latest data archived, skipping", "area", area)
		return nil
	}

	latest := latestTimestamp(points)

	stored, err := n.service.StoredTimestamp(ctx, area)
	if err != nil {
		return err
	}
	if stored == "" {
		// First run for this area seeds the cursor without notifying, so a
		// fresh deployment does not blast subscribers with old data.
		n.logger.Info("no cursor stored, seeding", "area", area, "ts", latest)
		return n.service.UpdateTimestamp(ctx, area, latest)
	}
	if latest <= stored {
		n.logger.Debug("no new data", "area", area, "ts", latest)
		return nil
	}

	n.logger.Info("new data detected", "area", area, "stored", stored, "latest", latest)

	subs, err := n.service.Subscriptions(ctx, area)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		n.logger.Info("no subscribers, advancing cursor", "area", area)
		return n.service.UpdateTimestamp(ctx, area, latest)
	}

	payload, err := json.Marshal(Payload{
		Zone:      area,
		Timestamp: latest,
		Title:     fmt.Sprintf("New prices available for %s", area),
		Body:      "Day-ahead rates were just published.",
		URL:       fmt.Sprintf("/explorer/?zones=%s", area),
	})
	if err != nil {
		return err
	}

	sent, removed := 0, 0
	for i := range subs {
		status, err := n.push.Send(ctx, payload, &subs[i])
		switch {
		case err != nil:
			n.logger.Warn("push delivery failed", "area", area, "err", err)
		case status == http.StatusNotFound || status == http.StatusGone:
			// The push service no longer knows this endpoint.
			n.logger.Info("pruning stale subscription", "area", area, "status", status)
			if err := n.service.DeleteSubscription(ctx, SubscriptionID(subs[i])); err != nil {
				n.logger.Warn("failed to prune subscription", "area", area, "err", err)
			} else {
				removed++
			}
		case status >= 400:
			n.logger.Warn("push rejected", "area", area, "status", status)
		default:
			sent++
		}
	}

	if err := n.service.UpdateTimestamp(ctx, area, latest); err != nil {
		return err
	}

	n.logger.Info("notifications sent", "area", area, "sent", sent, "removed", removed)
	return nil
}

// latestTimestamp returns the newest point timestamp formatted in market
// time. All cursor values share the zone offset, so the strings order the
// same way the instants do.
func latestTimestamp(points []model.PricePoint) string {
	var max time.Time
	for _, p := range points {
		if p.Timestamp.After(max) {
			max = p.Timestamp
		}
	}
	return max.In(model.MarketZone).Format(time.RFC3339)
}
