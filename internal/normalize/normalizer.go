package normalize

import (
	"fmt"
	"time"

	"github.com/utilitarian/spot-archive/internal/model"
)

// Expand converts one raw fragment into a full-cadence sequence: exactly one
// price point per slot from position 1 through the resolution's slot count,
// spaced by the resolution step from the interval start.
//
// Omitted slots are forward-filled with the last emitted value; a gap before
// the first data point is filled with that point's value. Returns
// model.ErrUnsupportedResolution for unrecognized cadences, which callers
// treat as skip-this-fragment.
func Expand(frag model.RawFragment) ([]model.PricePoint, error) {
	resolution, err := model.ParseResolution(frag.Resolution)
	if err != nil {
		return nil, err
	}

	if len(frag.DataPoints) == 0 {
		return nil, fmt.Errorf("fragment has no data points")
	}

	slots := resolution.Slots()
	step := resolution.Step()
	start := frag.Interval.Start

	out := make([]model.PricePoint, 0, slots)
	emit := func(position int, value string) {
		out = append(out, model.PricePoint{
			Timestamp: start.Add(time.Duration(position-1) * step).In(model.MarketZone),
			Value:     value,
		})
	}

	cursor := 1
	var last string
	for _, dp := range frag.DataPoints {
		if dp.Position < cursor {
			return nil, fmt.Errorf("data point position %d repeats or precedes position %d", dp.Position, cursor)
		}
		if dp.Position > slots {
			return nil, fmt.Errorf("data point position %d exceeds %d slots of %s", dp.Position, slots, resolution)
		}

		price := dp.Price.String()

		// Fill the gap up to this point. Before anything has been emitted the
		// upcoming price is the only known value, so a leading gap fills with
		// it.
		fill := price
		if len(out) > 0 {
			fill = last
		}
		for cursor < dp.Position {
			emit(cursor, fill)
			cursor++
		}

		emit(cursor, price)
		last = price
		cursor++
	}

	// Trailing silence: the last known price holds for the rest of the
	// interval.
	for cursor <= slots {
		emit(cursor, last)
		cursor++
	}

	return out, nil
}
