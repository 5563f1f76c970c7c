package data

import (
	"database/sql"
	"fmt"
	"strings"
)

// =============================================================================
// INGREDIENT REPOSITORY
// =============================================================================

type IngredientRepository struct {
	db *sql.DB
}

func NewIngredientRepository(db *sql.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

func (r *IngredientRepository) GetAll() ([]Ingredient, error) {
	const stmt = `
		SELECT id, name, category, unit, current_stock, threshold, cost_per_unit
		FROM ingredients ORDER BY name ASC`

	rows, err := r.db.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	var result []Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredient rows: %w", err)
	}

	return result, nil
}

func (r *IngredientRepository) GetByID(id string) (*Ingredient, error) {
	const stmt = `
		SELECT id, name, category, unit, current_stock, threshold, cost_per_unit
		FROM ingredients WHERE id = ?`

	row := r.db.QueryRow(stmt, id)

	var ing Ingredient
	var category, unit sql.NullString
	var stock, threshold, cost sql.NullFloat64

	err := row.Scan(&ing.ID, &ing.Name, &category, &unit, &stock, &threshold, &cost)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ingredient: %w", err)
	}

	ing.Category = nullableString(category)
	ing.Unit = nullableString(unit)
	ing.CurrentStock = nullableFloat(stock)
	ing.Threshold = nullableFloat(threshold)
	ing.CostPerUnit = nullableFloat(cost)

	return &ing, nil
}

// Insert creates a new ingredient with a slug id derived from its name. If
// the slug is taken, a numeric suffix is appended until a free one is found.
func (r *IngredientRepository) Insert(ing Ingredient) (*Ingredient, error) {
	baseID := Slugify(ing.Name)

	id := baseID
	for counter := 1; ; counter++ {
		var existing string
		err := r.db.QueryRow(`SELECT id FROM ingredients WHERE id = ?`, id).Scan(&existing)
		if err == sql.ErrNoRows {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check ingredient id: %w", err)
		}
		id = fmt.Sprintf("%s_%d", baseID, counter)
	}

	const stmt = `
		INSERT INTO ingredients (id, name, category, unit, cost_per_unit, current_stock, threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(stmt, id, ing.Name, ing.Category, ing.Unit, ing.CostPerUnit, 0.0, ing.Threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ingredient: %w", err)
	}

	return r.GetByID(id)
}

// allowed fields for partial updates
var ingredientUpdateFields = map[string]bool{
	"name":          true,
	"category":      true,
	"unit":          true,
	"threshold":     true,
	"cost_per_unit": true,
	"current_stock": true,
}

// Update applies a partial update of the allowed fields. Returns false if no
// row matched or no valid field was supplied.
func (r *IngredientRepository) Update(id string, updates map[string]interface{}) (bool, error) {
	var setClauses []string
	var values []interface{}

	for key, value := range updates {
		if ingredientUpdateFields[key] {
			setClauses = append(setClauses, fmt.Sprintf("%s = ?", key))
			values = append(values, value)
		}
	}

	if len(setClauses) == 0 {
		return false, nil
	}

	values = append(values, id)
	stmt := fmt.Sprintf("UPDATE ingredients SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	result, err := r.db.Exec(stmt, values...)
	if err != nil {
		return false, fmt.Errorf("failed to update ingredient: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes an ingredient and its recipe mappings together.
func (r *IngredientRepository) Delete(id string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM recipe_components WHERE ingredient_id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to delete recipe components: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM ingredients WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete ingredient: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit ingredient delete: %w", err)
	}
	return affected > 0, nil
}

// Slugify turns an ingredient name into a stable lowercase identifier.
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func scanIngredient(rows *sql.Rows) (*Ingredient, error) {
	var ing Ingredient
	var category, unit sql.NullString
	var stock, threshold, cost sql.NullFloat64

	err := rows.Scan(&ing.ID, &ing.Name, &category, &unit, &stock, &threshold, &cost)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ingredient: %w", err)
	}

	ing.Category = nullableString(category)
	ing.Unit = nullableString(unit)
	ing.CurrentStock = nullableFloat(stock)
	ing.Threshold = nullableFloat(threshold)
	ing.CostPerUnit = nullableFloat(cost)

	return &ing, nil
}
