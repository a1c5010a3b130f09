package monitor

import "github.com/shopspring/decimal"

// EvaluateAlert reports whether a price-drop alert should fire: true iff the
// current price is at or below the armed threshold. It is pure; idempotence
// across cycles comes from pairing every fire with a ClearAlert in storage.
func EvaluateAlert(current, threshold decimal.Decimal) bool {
	return current.LessThanOrEqual(threshold)
}
