package data

import (
	"database/sql"
	"fmt"
)

// =============================================================================
// RECIPE REPOSITORY
// =============================================================================

type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// ComponentsFor returns the recipe lines configured for one menu item. An
// item with no recipe returns an empty slice, not an error.
func (r *RecipeRepository) ComponentsFor(menuItemGUID string) ([]RecipeComponent, error) {
	const stmt = `
		SELECT id, menu_item_guid, ingredient_id, quantity, unit
		FROM recipe_components WHERE menu_item_guid = ?`

	rows, err := r.db.Query(stmt, menuItemGUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe components: %w", err)
	}
	defer rows.Close()

	var result []RecipeComponent
	for rows.Next() {
		var c RecipeComponent
		var ingredientID, unit sql.NullString
		var quantity sql.NullFloat64

		if err := rows.Scan(&c.ID, &c.MenuItemGUID, &ingredientID, &quantity, &unit); err != nil {
			return nil, fmt.Errorf("failed to scan recipe component: %w", err)
		}
		c.IngredientID = nullableString(ingredientID)
		c.Quantity = nullableFloat(quantity)
		c.Unit = nullableString(unit)
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe rows: %w", err)
	}

	return result, nil
}

// GetAll returns every configured recipe keyed by menu item GUID.
func (r *RecipeRepository) GetAll() (map[string][]RecipeComponent, error) {
	const stmt = `
		SELECT menu_item_guid, ingredient_id, quantity, unit
		FROM recipe_components ORDER BY menu_item_guid`

	rows, err := r.db.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	recipes := make(map[string][]RecipeComponent)
	for rows.Next() {
		var c RecipeComponent
		var ingredientID, unit sql.NullString
		var quantity sql.NullFloat64

		if err := rows.Scan(&c.MenuItemGUID, &ingredientID, &quantity, &unit); err != nil {
			return nil, fmt.Errorf("failed to scan recipe component: %w", err)
		}
		c.IngredientID = nullableString(ingredientID)
		c.Quantity = nullableFloat(quantity)
		c.Unit = nullableString(unit)
		recipes[c.MenuItemGUID] = append(recipes[c.MenuItemGUID], c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe rows: %w", err)
	}

	return recipes, nil
}

// Replace deletes every existing line for the menu item and inserts the new
// set in one transaction. Recipe edits are full replacements, never partial.
func (r *RecipeRepository) Replace(menuItemGUID string, components []RecipeComponent) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM recipe_components WHERE menu_item_guid = ?`, menuItemGUID); err != nil {
		return fmt.Errorf("failed to delete recipe components: %w", err)
	}

	const stmt = `
		INSERT INTO recipe_components (menu_item_guid, ingredient_id, quantity, unit)
		VALUES (?, ?, ?, ?)`

	for _, c := range components {
		if _, err := tx.Exec(stmt, menuItemGUID, c.IngredientID, c.Quantity, c.Unit); err != nil {
			return fmt.Errorf("failed to insert recipe component: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe replace: %w", err)
	}
	return nil
}

// Delete removes all lines for a menu item. Returns false if none existed.
func (r *RecipeRepository) Delete(menuItemGUID string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM recipe_components WHERE menu_item_guid = ?`, menuItemGUID)
	if err != nil {
		return false, fmt.Errorf("failed to delete recipe: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
