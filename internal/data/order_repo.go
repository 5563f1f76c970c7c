package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// =============================================================================
// ORDER REPOSITORY
// =============================================================================

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Exists reports whether an order with this external GUID is already stored.
// This check is the sync engine's idempotency gate; the UNIQUE constraint on
// toast_guid remains the final arbiter under overlapping syncs.
func (r *OrderRepository) Exists(toastGUID string) (bool, error) {
	var id int64
	err := r.db.QueryRow(`SELECT id FROM orders WHERE toast_guid = ?`, toastGUID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check order existence: %w", err)
	}
	return true, nil
}

// =============================================================================
// SYNC BATCH (SINGLE-TRANSACTION COMMIT SCOPE)
// =============================================================================

// SyncBatch wraps one transaction covering an entire commit-mode sync: order
// rows, item rows, stock decrements, and deduction rows all land together or
// not at all.
type SyncBatch struct {
	tx *sql.Tx
}

// BeginSyncBatch starts the all-or-nothing transaction for a commit sync.
func (r *OrderRepository) BeginSyncBatch(ctx context.Context) (*SyncBatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sync transaction: %w", err)
	}
	return &SyncBatch{tx: tx}, nil
}

// InsertOrder stores one order row and returns its local id. A duplicate
// external GUID is rejected by the UNIQUE constraint, which aborts the batch.
func (b *SyncBatch) InsertOrder(o Order) (int64, error) {
	const stmt = `
		INSERT INTO orders (
			toast_guid, order_number, opened_date, closed_date, modified_date,
			deleted, total_amount, tax_amount, tip_amount, payment_status, source, raw_json, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := b.tx.Exec(stmt,
		o.ToastGUID, o.OrderNumber, o.OpenedDate, o.ClosedDate, o.ModifiedDate,
		o.Deleted, o.TotalAmount, o.TaxAmount, o.TipAmount, o.PaymentStatus,
		o.Source, o.RawJSON, formatTime(o.SyncedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order %s: %w", o.ToastGUID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read order id: %w", err)
	}
	return id, nil
}

// InsertOrderItem stores one sold selection and returns its local id.
func (b *SyncBatch) InsertOrderItem(item OrderItem) (int64, error) {
	const stmt = `
		INSERT INTO order_items (
			order_id, menu_item_guid, menu_item_name, quantity, unit_price, total_price, modifiers
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := b.tx.Exec(stmt,
		item.OrderID, item.MenuItemGUID, item.MenuItemName, item.Quantity,
		item.UnitPrice, item.TotalPrice, item.ModifiersJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read order item id: %w", err)
	}
	return id, nil
}

// ApplyDeduction decrements ingredient stock and writes the audit row in the
// same transaction. The read-modify-write stays inside the batch so
// concurrent mutation paths cannot produce lost updates.
func (b *SyncBatch) ApplyDeduction(d OrderDeduction) error {
	if _, err := b.tx.Exec(
		`UPDATE ingredients SET current_stock = current_stock - ? WHERE id = ?`,
		d.QuantityDeducted, d.IngredientID,
	); err != nil {
		return fmt.Errorf("failed to decrement stock for %s: %w", d.IngredientID, err)
	}

	const stmt = `
		INSERT INTO order_deductions (
			order_id, order_item_id, ingredient_id, quantity_deducted, timestamp
		) VALUES (?, ?, ?, ?, ?)`

	if _, err := b.tx.Exec(stmt,
		d.OrderID, d.OrderItemID, d.IngredientID, d.QuantityDeducted, formatTime(d.Timestamp),
	); err != nil {
		return fmt.Errorf("failed to insert deduction row: %w", err)
	}
	return nil
}

func (b *SyncBatch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync batch: %w", err)
	}
	return nil
}

func (b *SyncBatch) Rollback() error {
	return b.tx.Rollback()
}

// =============================================================================
// BROWSE AND STATS QUERIES
// =============================================================================

// OrderSummary is the list view returned by the orders endpoint.
type OrderSummary struct {
	ID            int64   `json:"id"`
	ToastGUID     string  `json:"toast_guid"`
	OrderNumber   string  `json:"order_number"`
	ClosedDate    string  `json:"closed_date"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentStatus string  `json:"payment_status"`
	Source        string  `json:"source"`
}

// DeductionDetail is a deduction row joined with its ingredient.
type DeductionDetail struct {
	ID               int64   `json:"id"`
	OrderItemID      int64   `json:"order_item_id"`
	IngredientID     string  `json:"ingredient_id"`
	IngredientName   string  `json:"ingredient_name"`
	QuantityDeducted float64 `json:"quantity_deducted"`
	Unit             string  `json:"unit"`
	Timestamp        string  `json:"timestamp"`
}

// OrderDetails is the full order view: row, items, deductions.
type OrderDetails struct {
	Order      OrderSummary      `json:"order"`
	OpenedDate string            `json:"opened_date"`
	TaxAmount  float64           `json:"tax_amount"`
	TipAmount  float64           `json:"tip_amount"`
	SyncedAt   string            `json:"synced_at"`
	Items      []OrderItemView   `json:"items"`
	Deductions []DeductionDetail `json:"deductions"`
}

// OrderItemView is the item list view within order details.
type OrderItemView struct {
	ID           int64   `json:"id"`
	MenuItemGUID string  `json:"menu_item_guid"`
	MenuItemName string  `json:"menu_item_name"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalPrice   float64 `json:"total_price"`
}

// OrderStats is the aggregate view for the dashboard.
type OrderStats struct {
	Count      int64   `json:"count"`
	Revenue    float64 `json:"revenue"`
	TodayCount int64   `json:"today_count"`
}

func (r *OrderRepository) ListRecent(limit int) ([]OrderSummary, error) {
	const stmt = `
		SELECT id, toast_guid, order_number, closed_date, total_amount, payment_status, source
		FROM orders ORDER BY closed_date DESC LIMIT ?`

	rows, err := r.db.Query(stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []OrderSummary
	for rows.Next() {
		var o OrderSummary
		var orderNumber, closedDate, paymentStatus, source sql.NullString
		var total sql.NullFloat64

		if err := rows.Scan(&o.ID, &o.ToastGUID, &orderNumber, &closedDate, &total, &paymentStatus, &source); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.OrderNumber = nullableString(orderNumber)
		o.ClosedDate = nullableString(closedDate)
		o.TotalAmount = nullableFloat(total)
		o.PaymentStatus = nullableString(paymentStatus)
		o.Source = nullableString(source)
		result = append(result, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	return result, nil
}

func (r *OrderRepository) GetDetails(orderID int64) (*OrderDetails, error) {
	const orderStmt = `
		SELECT id, toast_guid, order_number, opened_date, closed_date,
			total_amount, tax_amount, tip_amount, payment_status, source, synced_at
		FROM orders WHERE id = ?`

	var details OrderDetails
	var orderNumber, openedDate, closedDate, paymentStatus, source, syncedAt sql.NullString
	var total, tax, tip sql.NullFloat64

	err := r.db.QueryRow(orderStmt, orderID).Scan(
		&details.Order.ID, &details.Order.ToastGUID, &orderNumber, &openedDate, &closedDate,
		&total, &tax, &tip, &paymentStatus, &source, &syncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	details.Order.OrderNumber = nullableString(orderNumber)
	details.Order.ClosedDate = nullableString(closedDate)
	details.Order.TotalAmount = nullableFloat(total)
	details.Order.PaymentStatus = nullableString(paymentStatus)
	details.Order.Source = nullableString(source)
	details.OpenedDate = nullableString(openedDate)
	details.TaxAmount = nullableFloat(tax)
	details.TipAmount = nullableFloat(tip)
	details.SyncedAt = nullableString(syncedAt)

	const itemsStmt = `
		SELECT id, menu_item_guid, menu_item_name, quantity, unit_price, total_price
		FROM order_items WHERE order_id = ?`

	itemRows, err := r.db.Query(itemsStmt, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItemView
		var guid, name sql.NullString
		var qty, unitPrice, totalPrice sql.NullFloat64

		if err := itemRows.Scan(&item.ID, &guid, &name, &qty, &unitPrice, &totalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.MenuItemGUID = nullableString(guid)
		item.MenuItemName = nullableString(name)
		item.Quantity = nullableFloat(qty)
		item.UnitPrice = nullableFloat(unitPrice)
		item.TotalPrice = nullableFloat(totalPrice)
		details.Items = append(details.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	const deductionsStmt = `
		SELECT od.id, od.order_item_id, od.ingredient_id, i.name, od.quantity_deducted, i.unit, od.timestamp
		FROM order_deductions od
		JOIN ingredients i ON od.ingredient_id = i.id
		WHERE od.order_id = ?`

	dedRows, err := r.db.Query(deductionsStmt, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deductions: %w", err)
	}
	defer dedRows.Close()

	for dedRows.Next() {
		var d DeductionDetail
		var unit, timestamp sql.NullString

		if err := dedRows.Scan(&d.ID, &d.OrderItemID, &d.IngredientID, &d.IngredientName, &d.QuantityDeducted, &unit, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan deduction: %w", err)
		}
		d.Unit = nullableString(unit)
		d.Timestamp = nullableString(timestamp)
		details.Deductions = append(details.Deductions, d)
	}
	if err := dedRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deduction rows: %w", err)
	}

	return &details, nil
}

func (r *OrderRepository) Stats(now time.Time) (*OrderStats, error) {
	var stats OrderStats
	var revenue sql.NullFloat64

	err := r.db.QueryRow(
		`SELECT COUNT(*), SUM(total_amount) FROM orders WHERE deleted = 0`,
	).Scan(&stats.Count, &revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to query order stats: %w", err)
	}
	stats.Revenue = nullableFloat(revenue)

	today := now.Format("2006-01-02")
	err = r.db.QueryRow(
		`SELECT COUNT(*) FROM orders WHERE DATE(closed_date) = ? AND deleted = 0`, today,
	).Scan(&stats.TodayCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query today's order count: %w", err)
	}

	return &stats, nil
}

// CountDeductions returns the total number of deduction audit rows.
func (r *OrderRepository) CountDeductions() (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM order_deductions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count deductions: %w", err)
	}
	return count, nil
}
