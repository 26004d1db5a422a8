package api

import (
	"errors"
	"testing"
	"time"

	"github.com/utilitarian/spot-archive/internal/model"
)

const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<Publication_MarketDocument xmlns="urn:iec62325.351:tc57wg16:451-3:publicationdocument:7:0">
  <mRID>b3e5a0a08ba14a9e9e1a</mRID>
  <type>A44</type>
  <TimeSeries>
    <mRID>1</mRID>
    <currency_Unit.name>EUR</currency_Unit.name>
    <price_Measure_Unit.name>MWH</price_Measure_Unit.name>
    <Period>
      <timeInterval>
        <start>2024-01-01T23:00Z</start>
        <end>2024-01-02T23:00Z</end>
      </timeInterval>
      <resolution>PT60M</resolution>
      <Point><position>1</position><price.amount>50.10</price.amount></Point>
      <Point><position>3</position><price.amount>48.00</price.amount></Point>
    </Period>
  </TimeSeries>
  <TimeSeries>
    <mRID>2</mRID>
    <currency_Unit.name>EUR</currency_Unit.name>
    <price_Measure_Unit.name>MWH</price_Measure_Unit.name>
    <classificationSequence_AttributeInstanceComponent.position>1</classificationSequence_AttributeInstanceComponent.position>
    <Period>
      <timeInterval>
        <start>2024-01-01T23:00Z</start>
        <end>2024-01-02T23:00Z</end>
      </timeInterval>
      <resolution>PT60M</resolution>
      <Point><position>1</position><price.amount>49.95</price.amount></Point>
    </Period>
  </TimeSeries>
</Publication_MarketDocument>`

func TestDecode(t *testing.T) {
	fragments, skipped, err := Decode([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}
	if len(fragments) != 2 {
		t.Fatalf("fragments = %d, want 2", len(fragments))
	}

	first := fragments[0]
	if first.Currency != "EUR" || first.EnergyUnit != "MWH" {
		t.Errorf("units = %s/%s, want EUR/MWH", first.Currency, first.EnergyUnit)
	}
	if first.Resolution != "PT60M" {
		t.Errorf("resolution = %q, want PT60M", first.Resolution)
	}
	if first.Classification != model.DefaultClassification {
		t.Errorf("absent classification = %d, want %d", first.Classification, model.DefaultClassification)
	}

	wantStart := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	if !first.Interval.Start.Equal(wantStart) {
		t.Errorf("interval start = %v, want %v", first.Interval.Start, wantStart)
	}

	if len(first.DataPoints) != 2 {
		t.Fatalf("data points = %d, want 2", len(first.DataPoints))
	}
	if first.DataPoints[0].Position != 1 || first.DataPoints[0].Price.String() != "50.10" {
		t.Errorf("point 0 = %+v, want position 1 price 50.10", first.DataPoints[0])
	}
	if first.DataPoints[1].Position != 3 || first.DataPoints[1].Price.String() != "48.00" {
		t.Errorf("point 1 = %+v, want position 3 price 48.00", first.DataPoints[1])
	}

	second := fragments[1]
	if second.Classification != 1 {
		t.Errorf("classification = %d, want 1", second.Classification)
	}
}

func TestDecodeMissingContainer(t *testing.T) {
	var parseErr *ParseError

	_, _, err := Decode([]byte(`<SomethingElse></SomethingElse>`))
	if !errors.As(err, &parseErr) {
		t.Errorf("foreign document error = %v, want *ParseError", err)
	}

	_, _, err = Decode([]byte(`not xml at all`))
	if !errors.As(err, &parseErr) {
		t.Errorf("garbage body error = %v, want *ParseError", err)
	}

	_, _, err = Decode([]byte(`<Publication_MarketDocument></Publication_MarketDocument>`))
	if !errors.As(err, &parseErr) {
		t.Errorf("empty document error = %v, want *ParseError", err)
	}
}

func TestDecodeAcknowledgement(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<Acknowledgement_MarketDocument xmlns="urn:iec62325.351:tc57wg16:451-1:acknowledgementdocument:8:1">
  <Reason>
    <code>999</code>
    <text>No matching data found</text>
  </Reason>
</Acknowledgement_MarketDocument>`

	_, _, err := Decode([]byte(body))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if parseErr.Reason != "acknowledgement: No matching data found" {
		t.Errorf("reason = %q, want acknowledgement text", parseErr.Reason)
	}
}

func TestDecodeSkipsBadSeries(t *testing.T) {
	body := `<Publication_MarketDocument>
  <TimeSeries>
    <currency_Unit.name>EUR</currency_Unit.name>
    <price_Measure_Unit.name>MWH</price_Measure_Unit.name>
    <Period>
      <timeInterval><start>bogus</start><end>2024-01-02T23:00Z</end></timeInterval>
      <resolution>PT60M</resolution>
      <Point><position>1</position><price.amount>10.0</price.amount></Point>
    </Period>
  </TimeSeries>
  <TimeSeries>
    <currency_Unit.name>EUR</currency_Unit.name>
    <price_Measure_Unit.name>MWH</price_Measure_Unit.name>
    <Period>
      <timeInterval><start>2024-01-01T23:00Z</start><end>2024-01-02T23:00Z</end></timeInterval>
      <resolution>PT60M</resolution>
      <Point><position>1</position><price.amount>10.0</price.amount></Point>
    </Period>
  </TimeSeries>
</Publication_MarketDocument>`

	fragments, skipped, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(fragments) != 1 {
		t.Errorf("fragments = %d, want 1 (good series survives)", len(fragments))
	}
	if len(skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(skipped))
	}

	var structErr *StructuringError
	if !errors.As(skipped[0], &structErr) {
		t.Fatalf("skipped[0] = %v, want *StructuringError", skipped[0])
	}
	if structErr.Series != 0 || structErr.Field != "timeInterval.start" {
		t.Errorf("structuring error = %+v, want series 0 field timeInterval.start", structErr)
	}
}

func TestDecodeSortsPointsByPosition(t *testing.T) {
	body := `<Publication_MarketDocument>
  <TimeSeries>
    <currency_Unit.name>EUR</currency_Unit.name>
    <price_Measure_Unit.name>MWH</price_Measure_Unit.name>
    <Period>
      <timeInterval><start>2024-01-01T23:00Z</start><end>2024-01-02T23:00Z</end></timeInterval>
      <resolution>PT60M</resolution>
      <Point><position>5</position><price.amount>12.0</price.amount></Point>
      <Point><position>1</position><price.amount>10.0</price.amount></Point>
    </Period>
  </TimeSeries>
</Publication_MarketDocument>`

	fragments, _, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	points := fragments[0].DataPoints
	if points[0].Position != 1 || points[1].Position != 5 {
		t.Errorf("positions = %d,%d, want 1,5", points[0].Position, points[1].Position)
	}
}
