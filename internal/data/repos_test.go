package data

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := CreateTables(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedIngredient(t *testing.T, db *sql.DB, id, name string, stock, cost float64) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO ingredients (id, name, category, unit, current_stock, threshold, cost_per_unit)
		 VALUES (?, ?, 'Other', 'kg', ?, 0, ?)`,
		id, name, stock, cost,
	)
	if err != nil {
		t.Fatalf("Failed to seed ingredient %s: %v", id, err)
	}
}

func TestIngredientInsertGeneratesSlugIDs(t *testing.T) {
	repo := NewIngredientRepository(newTestDB(t))

	first, err := repo.Insert(Ingredient{Name: "Red Onion", Category: "Produce", Unit: "kg"})
	if err != nil {
		t.Fatalf("Failed to insert ingredient: %v", err)
	}
	if first.ID != "red_onion" {
		t.Errorf("Expected slug id red_onion, got %q", first.ID)
	}

	second, err := repo.Insert(Ingredient{Name: "Red Onion", Category: "Produce", Unit: "kg"})
	if err != nil {
		t.Fatalf("Failed to insert colliding ingredient: %v", err)
	}
	if second.ID != "red_onion_1" {
		t.Errorf("Expected suffixed id red_onion_1, got %q", second.ID)
	}
}

func TestIngredientInsertStartsAtZeroStock(t *testing.T) {
	repo := NewIngredientRepository(newTestDB(t))

	ing, err := repo.Insert(Ingredient{Name: "Pickles", Unit: "jar", CurrentStock: 99})
	if err != nil {
		t.Fatalf("Failed to insert ingredient: %v", err)
	}
	if ing.CurrentStock != 0 {
		t.Errorf("Expected new ingredient to start at 0 stock, got %v", ing.CurrentStock)
	}
}

func TestIngredientUpdateAllowsKnownFieldsOnly(t *testing.T) {
	db := newTestDB(t)
	repo := NewIngredientRepository(db)
	seedIngredient(t, db, "bun", "Burger Bun", 10, 0.5)

	updated, err := repo.Update("bun", map[string]interface{}{
		"threshold": 12.0,
		"id":        "hijacked",
	})
	if err != nil {
		t.Fatalf("Failed to update ingredient: %v", err)
	}
	if !updated {
		t.Fatal("Expected update to report a matched row")
	}

	ing, err := repo.GetByID("bun")
	if err != nil || ing == nil {
		t.Fatalf("Failed to reload ingredient: %v", err)
	}
	if ing.Threshold != 12 {
		t.Errorf("Expected threshold 12, got %v", ing.Threshold)
	}

	updated, err = repo.Update("bun", map[string]interface{}{"id": "hijacked"})
	if err != nil {
		t.Fatalf("Update with no valid fields errored: %v", err)
	}
	if updated {
		t.Error("Expected update with no valid fields to report false")
	}
}

func TestIngredientDeleteRemovesRecipeReferences(t *testing.T) {
	db := newTestDB(t)
	ingredients := NewIngredientRepository(db)
	recipes := NewRecipeRepository(db)
	seedIngredient(t, db, "bun", "Burger Bun", 10, 0.5)

	err := recipes.Replace("burger-item", []RecipeComponent{
		{IngredientID: "bun", Quantity: 1, Unit: "pcs"},
	})
	if err != nil {
		t.Fatalf("Failed to set recipe: %v", err)
	}

	deleted, err := ingredients.Delete("bun")
	if err != nil {
		t.Fatalf("Failed to delete ingredient: %v", err)
	}
	if !deleted {
		t.Fatal("Expected delete to report a matched row")
	}

	components, err := recipes.ComponentsFor("burger-item")
	if err != nil {
		t.Fatalf("Failed to load recipe: %v", err)
	}
	if len(components) != 0 {
		t.Errorf("Expected recipe lines removed with the ingredient, got %d", len(components))
	}
}

func TestRecipeReplaceIsFullReplacement(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecipeRepository(db)
	seedIngredient(t, db, "bun", "Burger Bun", 10, 0.5)
	seedIngredient(t, db, "patty", "Beef Patty", 10, 2)

	err := repo.Replace("burger-item", []RecipeComponent{
		{IngredientID: "bun", Quantity: 1, Unit: "pcs"},
		{IngredientID: "patty", Quantity: 1, Unit: "pcs"},
	})
	if err != nil {
		t.Fatalf("Failed to set recipe: %v", err)
	}

	err = repo.Replace("burger-item", []RecipeComponent{
		{IngredientID: "patty", Quantity: 2, Unit: "pcs"},
	})
	if err != nil {
		t.Fatalf("Failed to replace recipe: %v", err)
	}

	components, err := repo.ComponentsFor("burger-item")
	if err != nil {
		t.Fatalf("Failed to load recipe: %v", err)
	}
	if len(components) != 1 {
		t.Fatalf("Expected 1 component after replacement, got %d", len(components))
	}
	if components[0].IngredientID != "patty" || components[0].Quantity != 2 {
		t.Errorf("Unexpected component: %+v", components[0])
	}
}

func TestRecipeComponentsForUnknownItemIsEmpty(t *testing.T) {
	repo := NewRecipeRepository(newTestDB(t))

	components, err := repo.ComponentsFor("nope")
	if err != nil {
		t.Fatalf("Unknown item errored: %v", err)
	}
	if len(components) != 0 {
		t.Errorf("Expected empty recipe, got %d components", len(components))
	}
}

func TestReceiptRecordTracksStockAndCost(t *testing.T) {
	db := newTestDB(t)
	repo := NewReceiptRepository(db)
	seedIngredient(t, db, "bun", "Burger Bun", 4, 0.5)

	applied, err := repo.Record(GoodsReceipt{
		Timestamp:        formatTime(time.Now()),
		IngredientID:     "bun",
		QuantityReceived: 20,
		Supplier:         "Bakery Co",
	})
	if err != nil {
		t.Fatalf("Failed to record receipt: %v", err)
	}

	if applied.OldStock != 4 || applied.NewStock != 24 {
		t.Errorf("Expected stock 4 -> 24, got %v -> %v", applied.OldStock, applied.NewStock)
	}
	// No cost supplied, so the stored per-unit cost applies.
	if applied.UnitCost != 0.5 || applied.TotalCost != 10 {
		t.Errorf("Expected unit cost 0.5 and total 10, got %v and %v", applied.UnitCost, applied.TotalCost)
	}

	var stock float64
	if err := db.QueryRow(`SELECT current_stock FROM ingredients WHERE id = 'bun'`).Scan(&stock); err != nil {
		t.Fatalf("Failed to read stock: %v", err)
	}
	if stock != 24 {
		t.Errorf("Expected persisted stock 24, got %v", stock)
	}
}

func TestReceiptBulkIsAtomic(t *testing.T) {
	db := newTestDB(t)
	repo := NewReceiptRepository(db)
	seedIngredient(t, db, "bun", "Burger Bun", 4, 0.5)

	_, err := repo.RecordBulk([]GoodsReceipt{
		{Timestamp: formatTime(time.Now()), IngredientID: "bun", QuantityReceived: 20},
		{Timestamp: formatTime(time.Now()), IngredientID: "ghost", QuantityReceived: 5},
	})
	if err == nil {
		t.Fatal("Expected bulk receipt with unknown ingredient to fail")
	}

	var stock float64
	if err := db.QueryRow(`SELECT current_stock FROM ingredients WHERE id = 'bun'`).Scan(&stock); err != nil {
		t.Fatalf("Failed to read stock: %v", err)
	}
	if stock != 4 {
		t.Errorf("Expected failed bulk to leave stock at 4, got %v", stock)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM goods_inward`).Scan(&count); err != nil {
		t.Fatalf("Failed to count receipts: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no audit rows from a failed bulk, got %d", count)
	}
}

func TestAdjustmentDirectionAndWasteCost(t *testing.T) {
	db := newTestDB(t)
	repo := NewAdjustmentRepository(db)
	seedIngredient(t, db, "slaw", "Coleslaw", 10, 3)

	waste, err := repo.Record(Adjustment{
		Timestamp:    formatTime(time.Now()),
		IngredientID: "slaw",
		Quantity:     2,
		Type:         "Deduction",
		Reason:       "Spoilage",
	})
	if err != nil {
		t.Fatalf("Failed to record deduction: %v", err)
	}
	if waste.NewStock != 8 {
		t.Errorf("Expected stock 8 after deduction, got %v", waste.NewStock)
	}
	if waste.TotalWasteCost != 6 {
		t.Errorf("Expected waste cost 6, got %v", waste.TotalWasteCost)
	}

	addition, err := repo.Record(Adjustment{
		Timestamp:    formatTime(time.Now()),
		IngredientID: "slaw",
		Quantity:     5,
		Type:         "Addition",
		Reason:       "Stock count correction",
	})
	if err != nil {
		t.Fatalf("Failed to record addition: %v", err)
	}
	if addition.NewStock != 13 {
		t.Errorf("Expected stock 13 after addition, got %v", addition.NewStock)
	}
	if addition.TotalWasteCost != 0 {
		t.Errorf("Expected no waste cost on additions, got %v", addition.TotalWasteCost)
	}
}

func TestSummarizeWasteGroupsAndFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewAdjustmentRepository(db)
	seedIngredient(t, db, "slaw", "Coleslaw", 100, 3)

	now := time.Now()
	record := func(ts time.Time, qty float64, adjType, reason string) {
		t.Helper()
		_, err := repo.Record(Adjustment{
			Timestamp:    formatTime(ts),
			IngredientID: "slaw",
			Quantity:     qty,
			Type:         adjType,
			Reason:       reason,
		})
		if err != nil {
			t.Fatalf("Failed to record adjustment: %v", err)
		}
	}

	record(now, 1, "Deduction", "Spoilage")
	record(now, 2, "Deduction", "Spoilage")
	record(now, 1, "Deduction", "Dropped")
	record(now, 4, "Addition", "Stock count correction")
	record(now.Add(-60*24*time.Hour), 9, "Deduction", "Spoilage")

	summary, err := repo.SummarizeWaste(now.Add(-30 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("Failed to summarize waste: %v", err)
	}

	if len(summary) != 2 {
		t.Fatalf("Expected 2 reasons, got %d: %+v", len(summary), summary)
	}
	// Ordered by total cost descending: spoilage (3 units * 3) first.
	if summary[0].Reason != "Spoilage" || summary[0].Count != 2 || summary[0].TotalCost != 9 {
		t.Errorf("Unexpected top summary row: %+v", summary[0])
	}
	if summary[1].Reason != "Dropped" || summary[1].TotalCost != 3 {
		t.Errorf("Unexpected second summary row: %+v", summary[1])
	}
}

func TestOrderExistsAndDetailLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)

	exists, err := repo.Exists("never-synced")
	if err != nil {
		t.Fatalf("Exists errored: %v", err)
	}
	if exists {
		t.Error("Expected unknown guid to not exist")
	}

	details, err := repo.GetDetails(12345)
	if err != nil {
		t.Fatalf("GetDetails errored: %v", err)
	}
	if details != nil {
		t.Errorf("Expected nil details for missing order, got %+v", details)
	}
}
