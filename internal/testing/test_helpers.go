// test_helpers.go - shared suite wiring for sync integration tests
package testing

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slawbackend/internal/data"
	ordersync "slawbackend/internal/sync"
	"slawbackend/internal/toast"
)

// TestSuite wires a temp-dir SQLite database, a mock upstream, and the sync
// engine together the way main.go does.
type TestSuite struct {
	Dir       string
	DB        *sql.DB
	Mock      *MockToastService
	Client    *toast.Client
	Creds     *toast.CredentialStore
	Watermark *ordersync.Watermark
	Sync      *ordersync.Service

	Ingredients *data.IngredientRepository
	Recipes     *data.RecipeRepository
	Menu        *data.MenuRepository
	Orders      *data.OrderRepository
	Receipts    *data.ReceiptRepository
	Adjustments *data.AdjustmentRepository
}

// NewTestSuite builds a fully wired suite. The credentials file starts with
// a valid token so tests exercising the refresh path must blank it first.
func NewTestSuite(t *testing.T) *TestSuite {
	t.Helper()

	dir := t.TempDir()

	db, err := data.OpenDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := data.CreateTables(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	mock := NewMockToastService()
	client := toast.NewClient(mock.APIBase(), mock.APIBase(), mock.APIBase())

	creds := toast.NewCredentialStore(filepath.Join(dir, "toast_credentials.txt"))
	err = creds.Save(&toast.Credentials{
		ClientID:       "test-client",
		ClientSecret:   "test-secret",
		RestaurantGUID: "test-restaurant",
		AccessToken:    "seed-token",
	})
	if err != nil {
		t.Fatalf("Failed to seed credentials: %v", err)
	}

	suite := &TestSuite{
		Dir:         dir,
		DB:          db,
		Mock:        mock,
		Client:      client,
		Creds:       creds,
		Watermark:   ordersync.NewWatermark(filepath.Join(dir, "last_sync_time.txt")),
		Ingredients: data.NewIngredientRepository(db),
		Recipes:     data.NewRecipeRepository(db),
		Menu:        data.NewMenuRepository(db),
		Orders:      data.NewOrderRepository(db),
		Receipts:    data.NewReceiptRepository(db),
		Adjustments: data.NewAdjustmentRepository(db),
	}

	suite.Sync = ordersync.NewService(
		suite.Orders, suite.Recipes, suite.Ingredients, suite.Menu,
		client, creds, suite.Watermark,
	)

	t.Cleanup(func() {
		mock.Close()
		db.Close()
	})

	return suite
}

// SetClock pins the sync engine's time source.
func (ts *TestSuite) SetClock(now time.Time) {
	ts.Sync.SetClock(func() time.Time { return now })
}

// SeedIngredient inserts an ingredient with an explicit id and stock level.
func (ts *TestSuite) SeedIngredient(t *testing.T, id, name, unit string, stock float64) {
	t.Helper()
	_, err := ts.DB.Exec(
		`INSERT INTO ingredients (id, name, category, unit, current_stock, threshold, cost_per_unit)
		 VALUES (?, ?, 'Other', ?, ?, 0, 0)`,
		id, name, unit, stock,
	)
	if err != nil {
		t.Fatalf("Failed to seed ingredient %s: %v", id, err)
	}
}

// SetRecipe installs the full component list for a menu item.
func (ts *TestSuite) SetRecipe(t *testing.T, menuItemGUID string, components ...data.RecipeComponent) {
	t.Helper()
	if err := ts.Recipes.Replace(menuItemGUID, components); err != nil {
		t.Fatalf("Failed to set recipe for %s: %v", menuItemGUID, err)
	}
}

// Stock reads an ingredient's current stock directly.
func (ts *TestSuite) Stock(t *testing.T, id string) float64 {
	t.Helper()
	var stock float64
	if err := ts.DB.QueryRow(`SELECT current_stock FROM ingredients WHERE id = ?`, id).Scan(&stock); err != nil {
		t.Fatalf("Failed to read stock for %s: %v", id, err)
	}
	return stock
}

// CountRows counts rows in a table.
func (ts *TestSuite) CountRows(t *testing.T, table string) int {
	t.Helper()
	var count int
	if err := ts.DB.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return count
}

// WatermarkValue reads the persisted watermark file, or "" when unset.
func (ts *TestSuite) WatermarkValue(t *testing.T) string {
	t.Helper()
	return readFileOrEmpty(filepath.Join(ts.Dir, "last_sync_time.txt"))
}

func readFileOrEmpty(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}

// AssertNoError fails the test if error is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertSyncErrorKind fails unless err carries the given sync error kind.
func AssertSyncErrorKind(t *testing.T, err error, kind ordersync.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
	got, ok := ordersync.KindOf(err)
	if !ok {
		t.Fatalf("Expected sync error, got %T: %v", err, err)
	}
	if got != kind {
		t.Fatalf("Expected %s error, got %s: %v", kind, got, err)
	}
}
