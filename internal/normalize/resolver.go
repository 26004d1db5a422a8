package normalize

import (
	"sort"

	"github.com/utilitarian/spot-archive/internal/model"
)

// NormalizedFragment is one expanded fragment together with the authority
// rank of its publication.
type NormalizedFragment struct {
	Classification int
	Points         []model.PricePoint
}

// Resolve collapses overlapping normalized fragments into exactly one price
// point per timestamp. For each timestamp the point from the fragment with
// the lowest classification rank wins; on equal rank the first-seen point is
// kept. The result is sorted ascending by timestamp.
func Resolve(fragments []NormalizedFragment) model.ReconciledSeries {
	type candidate struct {
		rank  int
		point model.PricePoint
	}

	winners := make(map[int64]candidate)
	for _, frag := range fragments {
		for _, point := range frag.Points {
			key := point.Timestamp.UnixNano()
			current, seen := winners[key]
			if !seen || frag.Classification < current.rank {
				winners[key] = candidate{rank: frag.Classification, point: point}
			}
		}
	}

	series := make(model.ReconciledSeries, 0, len(winners))
	for _, w := range winners {
		series = append(series, w.point)
	}
	sort.Slice(series, func(a, b int) bool {
		return series[a].Timestamp.Before(series[b].Timestamp)
	})

	return series
}
