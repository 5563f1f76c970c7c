package data

import (
	"database/sql"
	"fmt"
)

// =============================================================================
// GOODS-INWARD REPOSITORY
// =============================================================================

type ReceiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Record applies one goods receipt: the stock increase and the audit row
// commit together. Old and new stock are read inside the transaction so the
// audit trail reflects the values the update actually saw.
func (r *ReceiptRepository) Record(receipt GoodsReceipt) (*GoodsReceipt, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	applied, err := recordReceiptTx(tx, receipt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit goods receipt: %w", err)
	}
	return applied, nil
}

// RecordBulk applies several receipts in a single transaction. Either every
// line lands or none do.
func (r *ReceiptRepository) RecordBulk(receipts []GoodsReceipt) ([]GoodsReceipt, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	applied := make([]GoodsReceipt, 0, len(receipts))
	for _, receipt := range receipts {
		result, err := recordReceiptTx(tx, receipt)
		if err != nil {
			return nil, err
		}
		applied = append(applied, *result)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bulk receipt: %w", err)
	}
	return applied, nil
}

func recordReceiptTx(tx *sql.Tx, receipt GoodsReceipt) (*GoodsReceipt, error) {
	var name string
	var unit sql.NullString
	var stock, cost sql.NullFloat64

	err := tx.QueryRow(
		`SELECT name, unit, current_stock, cost_per_unit FROM ingredients WHERE id = ?`,
		receipt.IngredientID,
	).Scan(&name, &unit, &stock, &cost)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("unknown ingredient %q", receipt.IngredientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ingredient: %w", err)
	}

	receipt.IngredientName = name
	receipt.Unit = nullableString(unit)
	receipt.OldStock = nullableFloat(stock)
	receipt.NewStock = receipt.OldStock + receipt.QuantityReceived
	if receipt.UnitCost == 0 {
		receipt.UnitCost = nullableFloat(cost)
	}
	receipt.TotalCost = receipt.UnitCost * receipt.QuantityReceived

	if _, err := tx.Exec(
		`UPDATE ingredients SET current_stock = ? WHERE id = ?`,
		receipt.NewStock, receipt.IngredientID,
	); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	const stmt = `
		INSERT INTO goods_inward (
			timestamp, ingredient_id, ingredient_name, quantity_received, unit,
			old_stock, new_stock, supplier, invoice_number, notes, received_by,
			unit_cost, total_cost
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := tx.Exec(stmt,
		receipt.Timestamp, receipt.IngredientID, receipt.IngredientName,
		receipt.QuantityReceived, receipt.Unit, receipt.OldStock, receipt.NewStock,
		receipt.Supplier, receipt.InvoiceNumber, receipt.Notes, receipt.ReceivedBy,
		receipt.UnitCost, receipt.TotalCost,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert goods receipt: %w", err)
	}

	receipt.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt id: %w", err)
	}
	return &receipt, nil
}

// History returns the most recent goods receipts, newest first.
func (r *ReceiptRepository) History(limit int) ([]GoodsReceipt, error) {
	const stmt = `
		SELECT id, timestamp, ingredient_id, ingredient_name, quantity_received, unit,
			old_stock, new_stock, supplier, invoice_number, notes, received_by,
			unit_cost, total_cost
		FROM goods_inward ORDER BY timestamp DESC LIMIT ?`

	rows, err := r.db.Query(stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query goods receipts: %w", err)
	}
	defer rows.Close()

	var result []GoodsReceipt
	for rows.Next() {
		var receipt GoodsReceipt
		var timestamp, name, unit, supplier, invoice, notes, receivedBy sql.NullString
		var oldStock, newStock, unitCost, totalCost sql.NullFloat64

		if err := rows.Scan(
			&receipt.ID, &timestamp, &receipt.IngredientID, &name, &receipt.QuantityReceived,
			&unit, &oldStock, &newStock, &supplier, &invoice, &notes, &receivedBy,
			&unitCost, &totalCost,
		); err != nil {
			return nil, fmt.Errorf("failed to scan goods receipt: %w", err)
		}

		receipt.Timestamp = nullableString(timestamp)
		receipt.IngredientName = nullableString(name)
		receipt.Unit = nullableString(unit)
		receipt.OldStock = nullableFloat(oldStock)
		receipt.NewStock = nullableFloat(newStock)
		receipt.Supplier = nullableString(supplier)
		receipt.InvoiceNumber = nullableString(invoice)
		receipt.Notes = nullableString(notes)
		receipt.ReceivedBy = nullableString(receivedBy)
		receipt.UnitCost = nullableFloat(unitCost)
		receipt.TotalCost = nullableFloat(totalCost)
		result = append(result, receipt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating receipt rows: %w", err)
	}

	return result, nil
}
