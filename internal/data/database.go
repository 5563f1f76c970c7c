package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"slawbackend/internal/logger"
)

// Database connection pool configuration
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = time.Hour
	connMaxIdleTime = time.Minute * 15
	queryTimeout    = time.Second * 30
)

const TimeFormat = time.RFC3339

// =============================================================================
// STRUCT DEFINITIONS
// =============================================================================

// Ingredient is a stocked item. Stock is a signed real and may legitimately
// go negative when sales outrun receipts.
type Ingredient struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit"`
	CurrentStock float64 `json:"current_stock"`
	Threshold    float64 `json:"threshold"`
	CostPerUnit  float64 `json:"cost_per_unit"`
}

// MenuItem is one entry of the synced POS menu catalog.
type MenuItem struct {
	ID        int64     `json:"id"`
	Menu      string    `json:"menu"`
	GroupPath string    `json:"group"`
	ItemName  string    `json:"name"`
	ItemGUID  string    `json:"guid"`
	CreatedAt time.Time `json:"created_at"`
}

// RecipeComponent is a single ingredient requirement for one sold unit of a
// menu item.
type RecipeComponent struct {
	ID           int64   `json:"id,omitempty"`
	MenuItemGUID string  `json:"menu_item_guid,omitempty"`
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit,omitempty"`
}

// Order is a synced POS order. ToastGUID is unique and acts as the
// idempotency key for the sync engine.
type Order struct {
	ID            int64
	ToastGUID     string
	OrderNumber   string
	OpenedDate    string
	ClosedDate    string
	ModifiedDate  string
	Deleted       bool
	TotalAmount   float64
	TaxAmount     float64
	TipAmount     float64
	PaymentStatus string
	Source        string
	RawJSON       string
	SyncedAt      time.Time
}

// OrderItem is one sold selection belonging to an Order.
type OrderItem struct {
	ID            int64
	OrderID       int64
	MenuItemGUID  string
	MenuItemName  string
	Quantity      float64
	UnitPrice     float64
	TotalPrice    float64
	ModifiersJSON string
}

// OrderDeduction is the append-only audit row linking an order item to the
// stock it consumed.
type OrderDeduction struct {
	ID               int64
	OrderID          int64
	OrderItemID      int64
	IngredientID     string
	QuantityDeducted float64
	Timestamp        time.Time
}

// GoodsReceipt is one goods-inward audit row.
type GoodsReceipt struct {
	ID               int64   `json:"id"`
	Timestamp        string  `json:"timestamp"`
	IngredientID     string  `json:"ingredient_id"`
	IngredientName   string  `json:"ingredient_name"`
	QuantityReceived float64 `json:"quantity_received"`
	Unit             string  `json:"unit"`
	OldStock         float64 `json:"old_stock"`
	NewStock         float64 `json:"new_stock"`
	Supplier         string  `json:"supplier"`
	InvoiceNumber    string  `json:"invoice_number"`
	Notes            string  `json:"notes"`
	ReceivedBy       string  `json:"received_by"`
	UnitCost         float64 `json:"unit_cost"`
	TotalCost        float64 `json:"total_cost"`
}

// Adjustment is one manual stock adjustment audit row.
type Adjustment struct {
	ID             int64   `json:"id"`
	Timestamp      string  `json:"timestamp"`
	IngredientID   string  `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	Quantity       float64 `json:"quantity"`
	Type           string  `json:"type"` // "Addition" or "Deduction"
	Unit           string  `json:"unit"`
	Reason         string  `json:"reason"`
	StaffMember    string  `json:"staff_member"`
	Notes          string  `json:"notes"`
	OldStock       float64 `json:"old_stock"`
	NewStock       float64 `json:"new_stock"`
	CostPerUnit    float64 `json:"cost_per_unit"`
	TotalWasteCost float64 `json:"total_waste_cost"`
}

// =============================================================================
// DATABASE CONNECTION AND SETUP
// =============================================================================

// OpenDB opens the SQLite database with connection pooling and retry, and
// returns the handle. Callers own the handle and pass it to repositories;
// there is no package-level connection.
func OpenDB(dataSourceName string) (*sql.DB, error) {
	return openDBWithRetry(dataSourceName, 3)
}

func openDBWithRetry(dataSourceName string, maxRetries int) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sql.Open("sqlite", dataSourceName)
		if err != nil {
			logger.LogWarn("Database connection attempt %d failed: %v", attempt, err)
			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
				continue
			}
			return nil, fmt.Errorf("failed to open database after %d attempts: %w", maxRetries, err)
		}

		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
		db.SetConnMaxLifetime(connMaxLifetime)
		db.SetConnMaxIdleTime(connMaxIdleTime)

		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		err = db.PingContext(ctx)
		cancel()

		if err != nil {
			logger.LogWarn("Database ping attempt %d failed: %v", attempt, err)
			db.Close()
			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
				continue
			}
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", maxRetries, err)
		}

		if err := enablePragmas(db); err != nil {
			logger.LogWarn("Failed to enable some database optimizations: %v", err)
			// Pragma failures are not fatal
		}

		logger.LogInfo("Database connection established successfully (attempt %d)", attempt)
		return db, nil
	}

	return nil, fmt.Errorf("failed to initialize database after %d attempts", maxRetries)
}

func enablePragmas(conn *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
	}

	var lastErr error
	for _, pragma := range pragmas {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		_, err := conn.ExecContext(ctx, pragma)
		cancel()

		if err != nil {
			logger.LogWarn("Failed to execute %s: %v", pragma, err)
			lastErr = err
		}
	}
	return lastErr
}

// =============================================================================
// SCHEMA DEFINITIONS
// =============================================================================

const ingredientsSchema = `
	CREATE TABLE IF NOT EXISTS ingredients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		unit TEXT,
		current_stock REAL DEFAULT 0,
		threshold REAL DEFAULT 0,
		cost_per_unit REAL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_ingredients_name ON ingredients(name);`

const menuItemsSchema = `
	CREATE TABLE IF NOT EXISTS menu_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		menu TEXT,
		group_path TEXT,
		item_name TEXT NOT NULL,
		item_guid TEXT UNIQUE NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_menu_items_guid ON menu_items(item_guid);
	CREATE INDEX IF NOT EXISTS idx_menu_items_menu ON menu_items(menu);`

const recipeComponentsSchema = `
	CREATE TABLE IF NOT EXISTS recipe_components (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		menu_item_guid TEXT NOT NULL,
		ingredient_id TEXT,
		quantity REAL,
		unit TEXT,
		FOREIGN KEY (ingredient_id) REFERENCES ingredients (id)
	);
	CREATE INDEX IF NOT EXISTS idx_recipe_components_guid ON recipe_components(menu_item_guid);`

const goodsInwardSchema = `
	CREATE TABLE IF NOT EXISTS goods_inward (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT,
		ingredient_id TEXT,
		ingredient_name TEXT,
		quantity_received REAL,
		unit TEXT,
		old_stock REAL,
		new_stock REAL,
		supplier TEXT,
		invoice_number TEXT,
		notes TEXT,
		received_by TEXT,
		unit_cost REAL,
		total_cost REAL,
		FOREIGN KEY (ingredient_id) REFERENCES ingredients (id)
	);
	CREATE INDEX IF NOT EXISTS idx_goods_inward_timestamp ON goods_inward(timestamp);`

const adjustmentsSchema = `
	CREATE TABLE IF NOT EXISTS inventory_adjustments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT,
		ingredient_id TEXT,
		ingredient_name TEXT,
		quantity REAL,
		type TEXT,
		unit TEXT,
		reason TEXT,
		staff_member TEXT,
		notes TEXT,
		old_stock REAL,
		new_stock REAL,
		cost_per_unit REAL,
		total_waste_cost REAL,
		FOREIGN KEY (ingredient_id) REFERENCES ingredients (id)
	);
	CREATE INDEX IF NOT EXISTS idx_adjustments_timestamp ON inventory_adjustments(timestamp);`

const ordersSchema = `
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		toast_guid TEXT UNIQUE NOT NULL,
		order_number TEXT,
		opened_date TEXT,
		closed_date TEXT,
		modified_date TEXT,
		deleted BOOLEAN DEFAULT 0,
		total_amount REAL,
		tax_amount REAL,
		tip_amount REAL,
		payment_status TEXT,
		source TEXT,
		raw_json TEXT,
		synced_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_orders_closed_date ON orders(closed_date);`

const orderItemsSchema = `
	CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER,
		menu_item_guid TEXT,
		menu_item_name TEXT,
		quantity REAL,
		unit_price REAL,
		total_price REAL,
		modifiers TEXT,
		FOREIGN KEY (order_id) REFERENCES orders (id)
	);
	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);`

const orderDeductionsSchema = `
	CREATE TABLE IF NOT EXISTS order_deductions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER,
		order_item_id INTEGER,
		ingredient_id TEXT,
		quantity_deducted REAL,
		timestamp TEXT,
		FOREIGN KEY (order_id) REFERENCES orders (id),
		FOREIGN KEY (order_item_id) REFERENCES order_items (id),
		FOREIGN KEY (ingredient_id) REFERENCES ingredients (id)
	);
	CREATE INDEX IF NOT EXISTS idx_order_deductions_order ON order_deductions(order_id);`

// CreateTables creates the full schema if it does not already exist.
func CreateTables(db *sql.DB) error {
	tables := []struct {
		name   string
		schema string
	}{
		{"ingredients", ingredientsSchema},
		{"menu_items", menuItemsSchema},
		{"recipe_components", recipeComponentsSchema},
		{"goods_inward", goodsInwardSchema},
		{"inventory_adjustments", adjustmentsSchema},
		{"orders", ordersSchema},
		{"order_items", orderItemsSchema},
		{"order_deductions", orderDeductionsSchema},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.schema); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	return nil
}

// =============================================================================
// UTILITY FUNCTIONS (TIME AND NULL HANDLING)
// =============================================================================

func formatTime(t time.Time) string {
	return t.Format(TimeFormat)
}

func nullableString(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}

func nullableFloat(f sql.NullFloat64) float64 {
	if f.Valid {
		return f.Float64
	}
	return 0
}
