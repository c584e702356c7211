package utils

import "math"

// Round2 rounds a money amount to cents. All stored amounts and computed
// totals go through this so float drift never reaches the database.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
