// Package model defines shared data types used across the spot-archive pipeline.
//
// Conventions:
//   - Prices: decimal strings, kept exactly as published (no float round-trips)
//   - Timestamps: time.Time pinned to the market's fixed UTC+1 offset
//   - Areas: short bidding-zone names (SE1..SE4) mapped to EIC area codes
package model
