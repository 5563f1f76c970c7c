package sync

import (
	"math"

	"slawbackend/internal/data"
)

// Accumulator merges per-line recipe deductions into batch-wide totals per
// ingredient. Addition is commutative, so the totals are independent of the
// order in which orders and selections are walked.
type Accumulator struct {
	totals map[string]float64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{totals: make(map[string]float64)}
}

// Add accumulates each component's quantity scaled by the sold quantity.
func (a *Accumulator) Add(components []data.RecipeComponent, soldQty float64) {
	for _, c := range components {
		a.totals[c.IngredientID] += c.Quantity * soldQty
	}
}

// Totals returns the running totals keyed by ingredient id.
func (a *Accumulator) Totals() map[string]float64 {
	return a.totals
}

// Round4 rounds a quantity to 4 decimal places for display.
func Round4(q float64) float64 {
	return math.Round(q*10000) / 10000
}
