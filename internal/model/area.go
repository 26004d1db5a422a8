package model

import (
	"fmt"
	"sort"
	"strings"
)

// PriceArea is a bidding zone with its own day-ahead price series.
type PriceArea struct {
	Name string // short zone name, e.g. "SE3"
	Code string // upstream EIC area code
}

// areaCodes maps zone names to the EIC codes the upstream API expects as
// in_Domain / out_Domain.
var areaCodes = map[string]string{
	"SE1": "10Y1001A1001A44P",
	"SE2": "10Y1001A1001A45N",
	"SE3": "10Y1001A1001A46L",
	"SE4": "10Y1001A1001A47J",
}

// LookupArea resolves a zone name (case-insensitive) to a PriceArea.
func LookupArea(name string) (PriceArea, error) {
	upper := strings.ToUpper(name)
	code, ok := areaCodes[upper]
	if !ok {
		return PriceArea{}, fmt.Errorf("unknown price area %q (available: %s)",
			name, strings.Join(AreaNames(), ", "))
	}
	return PriceArea{Name: upper, Code: code}, nil
}

// AreaNames returns all known zone names, sorted.
func AreaNames() []string {
	names := make([]string, 0, len(areaCodes))
	for name := range areaCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
