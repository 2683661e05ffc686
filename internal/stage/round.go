package stage

import "github.com/shopspring/decimal"

// DefaultPrecision is the number of decimal places derived scores keep.
const DefaultPrecision = 2

// Round rounds v half away from zero to precision decimal places. It works
// on the shortest decimal representation of v, so 1.005 rounds to 1.01.
func Round(v float64, precision int) float64 {
	return decimal.NewFromFloat(v).Round(int32(precision)).InexactFloat64()
}

func roundPtr(v float64, precision int) *float64 {
	r := Round(v, precision)
	return &r
}
