package model

// DayStatistics summarizes one calendar day of archived prices. Values are
// decimal strings like the archive itself; AveragePrice is rounded to two
// decimals.
type DayStatistics struct {
	Day          string `json:"day"` // YYYY-MM-DD
	HighestPrice string `json:"highest_price"`
	LowestPrice  string `json:"lowest_price"`
	AveragePrice string `json:"average_price"`
}
