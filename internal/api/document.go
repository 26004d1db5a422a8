package api

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utilitarian/spot-archive/internal/model"
)

// ParseError means the response body could not be decoded into the expected
// document shape. Recoverable: the affected query window yields zero
// fragments.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse market document: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse market document: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StructuringError means one series inside a valid document failed to map
// into a RawFragment. Recoverable per series; the rest of the document is
// still processed.
type StructuringError struct {
	Series int
	Field  string
	Err    error
}

func (e *StructuringError) Error() string {
	return fmt.Sprintf("structure series %d: %s: %v", e.Series, e.Field, e.Err)
}

func (e *StructuringError) Unwrap() error { return e.Err }

// Wire representation of a day-ahead publication document.

type publicationDocument struct {
	XMLName    xml.Name             `xml:"Publication_MarketDocument"`
	TimeSeries []timeSeriesDocument `xml:"TimeSeries"`
}

type timeSeriesDocument struct {
	Currency       string         `xml:"currency_Unit.name"`
	EnergyUnit     string         `xml:"price_Measure_Unit.name"`
	Classification string         `xml:"classificationSequence_AttributeInstanceComponent.position"`
	Period         periodDocument `xml:"Period"`
}

type periodDocument struct {
	TimeInterval intervalDocument `xml:"timeInterval"`
	Resolution   string           `xml:"resolution"`
	Points       []pointDocument  `xml:"Point"`
}

type intervalDocument struct {
	Start string `xml:"start"`
	End   string `xml:"end"`
}

type pointDocument struct {
	Position string `xml:"position"`
	Amount   string `xml:"price.amount"`
}

// acknowledgementDocument is what the upstream returns instead of a
// publication when a query cannot be served (no data, bad interval).
type acknowledgementDocument struct {
	XMLName xml.Name `xml:"Acknowledgement_MarketDocument"`
	Reason  struct {
		Code string `xml:"code"`
		Text string `xml:"text"`
	} `xml:"Reason"`
}

// Decode parses a response body into raw fragments. A missing or foreign
// top-level container yields a *ParseError. Series that fail to map are
// skipped and reported in skipped as *StructuringError.
func Decode(body []byte) (fragments []model.RawFragment, skipped []error, err error) {
	var doc publicationDocument
	if unmarshalErr := xml.Unmarshal(body, &doc); unmarshalErr != nil {
		if reason, ok := decodeAcknowledgement(body); ok {
			return nil, nil, &ParseError{Reason: "acknowledgement: " + reason}
		}
		return nil, nil, &ParseError{Reason: "unexpected document", Err: unmarshalErr}
	}

	if len(doc.TimeSeries) == 0 {
		return nil, nil, &ParseError{Reason: "document contains no time series"}
	}

	for i, series := range doc.TimeSeries {
		frag, serr := structureSeries(i, series)
		if serr != nil {
			skipped = append(skipped, serr)
			continue
		}
		fragments = append(fragments, frag)
	}

	return fragments, skipped, nil
}

func decodeAcknowledgement(body []byte) (string, bool) {
	var ack acknowledgementDocument
	if err := xml.Unmarshal(body, &ack); err != nil {
		return "", false
	}
	reason := strings.TrimSpace(ack.Reason.Text)
	if reason == "" {
		reason = "code " + ack.Reason.Code
	}
	return reason, true
}

func structureSeries(index int, series timeSeriesDocument) (model.RawFragment, error) {
	start, err := parseDocumentTime(series.Period.TimeInterval.Start)
	if err != nil {
		return model.RawFragment{}, &StructuringError{Series: index, Field: "timeInterval.start", Err: err}
	}
	end, err := parseDocumentTime(series.Period.TimeInterval.End)
	if err != nil {
		return model.RawFragment{}, &StructuringError{Series: index, Field: "timeInterval.end", Err: err}
	}

	classification := model.DefaultClassification
	if series.Classification != "" {
		classification, err = strconv.Atoi(strings.TrimSpace(series.Classification))
		if err != nil {
			return model.RawFragment{}, &StructuringError{Series: index, Field: "classificationSequence", Err: err}
		}
	}

	points := make([]model.DataPoint, 0, len(series.Period.Points))
	for _, p := range series.Period.Points {
		position, err := strconv.Atoi(strings.TrimSpace(p.Position))
		if err != nil {
			return model.RawFragment{}, &StructuringError{Series: index, Field: "Point.position", Err: err}
		}
		price, err := decimal.NewFromString(strings.TrimSpace(p.Amount))
		if err != nil {
			return model.RawFragment{}, &StructuringError{Series: index, Field: "Point.price.amount", Err: err}
		}
		points = append(points, model.DataPoint{Position: position, Price: price})
	}

	// The normalizer's cursor walk requires monotonic positions; published
	// order is not guaranteed.
	sort.SliceStable(points, func(a, b int) bool {
		return points[a].Position < points[b].Position
	})

	return model.RawFragment{
		Currency:       series.Currency,
		EnergyUnit:     series.EnergyUnit,
		Interval:       model.Interval{Start: start, End: end},
		Resolution:     series.Period.Resolution,
		Classification: classification,
		DataPoints:     points,
	}, nil
}

// parseDocumentTime parses the upstream's minute-precision UTC timestamps,
// e.g. "2024-01-01T23:00Z", falling back to RFC 3339.
func parseDocumentTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse("2006-01-02T15:04Z07:00", value)
	if err == nil {
		return t, nil
	}
	t, rfcErr := time.Parse(time.RFC3339, value)
	if rfcErr == nil {
		return t, nil
	}
	return time.Time{}, err
}
