package sync

import (
	"testing"

	"slawbackend/internal/data"
)

func TestAccumulatorScalesBySoldQuantity(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]data.RecipeComponent{
		{IngredientID: "slaw", Quantity: 0.25},
		{IngredientID: "bun", Quantity: 1},
	}, 2.5)

	totals := acc.Totals()
	if totals["slaw"] != 0.625 {
		t.Errorf("Expected slaw total 0.625, got %v", totals["slaw"])
	}
	if totals["bun"] != 2.5 {
		t.Errorf("Expected bun total 2.5, got %v", totals["bun"])
	}
}

func TestAccumulatorMergesAcrossLines(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]data.RecipeComponent{{IngredientID: "bun", Quantity: 1}}, 2)
	acc.Add([]data.RecipeComponent{{IngredientID: "bun", Quantity: 2}}, 1)
	acc.Add([]data.RecipeComponent{{IngredientID: "patty", Quantity: 1}}, 3)

	totals := acc.Totals()
	if totals["bun"] != 4 {
		t.Errorf("Expected bun total 4, got %v", totals["bun"])
	}
	if totals["patty"] != 3 {
		t.Errorf("Expected patty total 3, got %v", totals["patty"])
	}
	if len(totals) != 2 {
		t.Errorf("Expected 2 ingredients, got %d", len(totals))
	}
}

func TestAccumulatorOrderIndependence(t *testing.T) {
	lines := []struct {
		components []data.RecipeComponent
		qty        float64
	}{
		{[]data.RecipeComponent{{IngredientID: "a", Quantity: 0.1}}, 3},
		{[]data.RecipeComponent{{IngredientID: "b", Quantity: 2}}, 0.5},
		{[]data.RecipeComponent{{IngredientID: "a", Quantity: 1.5}}, 2},
	}

	forward := NewAccumulator()
	for _, line := range lines {
		forward.Add(line.components, line.qty)
	}
	reverse := NewAccumulator()
	for i := len(lines) - 1; i >= 0; i-- {
		reverse.Add(lines[i].components, lines[i].qty)
	}

	for id, want := range forward.Totals() {
		if got := reverse.Totals()[id]; got != want {
			t.Errorf("Total for %s differs by order: %v vs %v", id, want, got)
		}
	}
}

func TestRound4(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0.123456, 0.1235},
		{0.12344, 0.1234},
		{2, 2},
		{0.33335, 0.3334},
	}
	for _, c := range cases {
		if got := Round4(c.in); got != c.want {
			t.Errorf("Round4(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
