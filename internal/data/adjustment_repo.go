package data

import (
	"database/sql"
	"fmt"
	"time"
)

// =============================================================================
// INVENTORY ADJUSTMENT REPOSITORY
// =============================================================================

type AdjustmentRepository struct {
	db *sql.DB
}

func NewAdjustmentRepository(db *sql.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

// Record applies one manual adjustment. The sign comes from Type: "Addition"
// raises stock, anything else lowers it. Stock change and audit row commit
// together.
func (r *AdjustmentRepository) Record(adj Adjustment) (*Adjustment, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	var unit sql.NullString
	var stock, cost sql.NullFloat64

	err = tx.QueryRow(
		`SELECT name, unit, current_stock, cost_per_unit FROM ingredients WHERE id = ?`,
		adj.IngredientID,
	).Scan(&name, &unit, &stock, &cost)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("unknown ingredient %q", adj.IngredientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ingredient: %w", err)
	}

	adj.IngredientName = name
	adj.Unit = nullableString(unit)
	adj.OldStock = nullableFloat(stock)
	adj.CostPerUnit = nullableFloat(cost)

	if adj.Type == "Addition" {
		adj.NewStock = adj.OldStock + adj.Quantity
		adj.TotalWasteCost = 0
	} else {
		adj.NewStock = adj.OldStock - adj.Quantity
		adj.TotalWasteCost = adj.CostPerUnit * adj.Quantity
	}

	if _, err := tx.Exec(
		`UPDATE ingredients SET current_stock = ? WHERE id = ?`,
		adj.NewStock, adj.IngredientID,
	); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	const stmt = `
		INSERT INTO inventory_adjustments (
			timestamp, ingredient_id, ingredient_name, quantity, type, unit,
			reason, staff_member, notes, old_stock, new_stock, cost_per_unit, total_waste_cost
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := tx.Exec(stmt,
		adj.Timestamp, adj.IngredientID, adj.IngredientName, adj.Quantity,
		adj.Type, adj.Unit, adj.Reason, adj.StaffMember, adj.Notes,
		adj.OldStock, adj.NewStock, adj.CostPerUnit, adj.TotalWasteCost,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert adjustment: %w", err)
	}

	adj.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read adjustment id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit adjustment: %w", err)
	}
	return &adj, nil
}

// History returns the most recent adjustments, newest first.
func (r *AdjustmentRepository) History(limit int) ([]Adjustment, error) {
	const stmt = `
		SELECT id, timestamp, ingredient_id, ingredient_name, quantity, type, unit,
			reason, staff_member, notes, old_stock, new_stock, cost_per_unit, total_waste_cost
		FROM inventory_adjustments ORDER BY timestamp DESC LIMIT ?`

	rows, err := r.db.Query(stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	var result []Adjustment
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *adj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adjustment rows: %w", err)
	}

	return result, nil
}

// WasteSummary aggregates deduction-type adjustments since the cutoff,
// grouped by reason.
type WasteSummary struct {
	Reason    string  `json:"reason"`
	Count     int64   `json:"count"`
	TotalCost float64 `json:"total_cost"`
}

// SummarizeWaste reports waste totals per reason for the trailing window.
func (r *AdjustmentRepository) SummarizeWaste(since time.Time) ([]WasteSummary, error) {
	const stmt = `
		SELECT reason, COUNT(*), SUM(total_waste_cost)
		FROM inventory_adjustments
		WHERE type != 'Addition' AND timestamp >= ?
		GROUP BY reason ORDER BY SUM(total_waste_cost) DESC`

	rows, err := r.db.Query(stmt, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query waste summary: %w", err)
	}
	defer rows.Close()

	var result []WasteSummary
	for rows.Next() {
		var s WasteSummary
		var reason sql.NullString
		var total sql.NullFloat64

		if err := rows.Scan(&reason, &s.Count, &total); err != nil {
			return nil, fmt.Errorf("failed to scan waste summary: %w", err)
		}
		s.Reason = nullableString(reason)
		s.TotalCost = nullableFloat(total)
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating waste summary rows: %w", err)
	}

	return result, nil
}

func scanAdjustment(rows *sql.Rows) (*Adjustment, error) {
	var adj Adjustment
	var timestamp, name, adjType, unit, reason, staff, notes sql.NullString
	var oldStock, newStock, cost, wasteCost sql.NullFloat64

	if err := rows.Scan(
		&adj.ID, &timestamp, &adj.IngredientID, &name, &adj.Quantity, &adjType,
		&unit, &reason, &staff, &notes, &oldStock, &newStock, &cost, &wasteCost,
	); err != nil {
		return nil, fmt.Errorf("failed to scan adjustment: %w", err)
	}

	adj.Timestamp = nullableString(timestamp)
	adj.IngredientName = nullableString(name)
	adj.Type = nullableString(adjType)
	adj.Unit = nullableString(unit)
	adj.Reason = nullableString(reason)
	adj.StaffMember = nullableString(staff)
	adj.Notes = nullableString(notes)
	adj.OldStock = nullableFloat(oldStock)
	adj.NewStock = nullableFloat(newStock)
	adj.CostPerUnit = nullableFloat(cost)
	adj.TotalWasteCost = nullableFloat(wasteCost)

	return &adj, nil
}
