package api

import (
	"context"
	"net/url"
	"time"

	"github.com/utilitarian/spot-archive/internal/model"
)

// documentTypeDayAhead is the upstream document type for day-ahead prices.
const documentTypeDayAhead = "A44"

// periodFormat is yyyymmddHH00 in UTC; the API only accepts whole hours.
const periodFormat = "2006010215"

// FetchDayAheadPrices fetches and decodes day-ahead price fragments for one
// area over [start, end). Transport failures and *ParseError propagate;
// series that fail to structure are logged and skipped.
func (c *Client) FetchDayAheadPrices(ctx context.Context, area model.PriceArea, start, end time.Time) ([]model.RawFragment, error) {
	query := url.Values{}
	query.Set("securityToken", c.securityToken)
	query.Set("periodStart", start.UTC().Format(periodFormat)+"00")
	query.Set("periodEnd", end.UTC().Format(periodFormat)+"00")
	query.Set("documentType", documentTypeDayAhead)
	query.Set("in_Domain", area.Code)
	query.Set("out_Domain", area.Code)

	c.logger.Info("fetching day-ahead prices",
		"area", area.Name,
		"area_code", area.Code,
		"start", start,
		"end", end,
	)

	body, err := c.doWithRetry(ctx, query)
	if err != nil {
		return nil, err
	}

	fragments, skipped, err := Decode(body)
	if err != nil {
		return nil, err
	}

	for _, serr := range skipped {
		c.logger.Error("skipping malformed series", "area", area.Name, "err", serr)
	}

	c.logger.Debug("decoded publication document",
		"area", area.Name,
		"fragments", len(fragments),
		"skipped", len(skipped),
		"bytes", len(body),
	)

	return fragments, nil
}
