package data

import (
	"database/sql"
	"fmt"
)

// =============================================================================
// MENU CATALOG REPOSITORY
// =============================================================================

type MenuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// Upsert inserts a catalog entry, updating the name and grouping when the
// GUID is already known.
func (r *MenuRepository) Upsert(item MenuItem) error {
	const stmt = `
		INSERT INTO menu_items (menu, group_path, item_name, item_guid)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(item_guid) DO UPDATE SET
			menu = excluded.menu,
			group_path = excluded.group_path,
			item_name = excluded.item_name`

	if _, err := r.db.Exec(stmt, item.Menu, item.GroupPath, item.ItemName, item.ItemGUID); err != nil {
		return fmt.Errorf("failed to upsert menu item: %w", err)
	}
	return nil
}

// LookupName returns the catalog name for a menu item GUID, or "" when the
// GUID has not been synced.
func (r *MenuRepository) LookupName(itemGUID string) (string, error) {
	var name string
	err := r.db.QueryRow(`SELECT item_name FROM menu_items WHERE item_guid = ?`, itemGUID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up menu item name: %w", err)
	}
	return name, nil
}

// GetAll returns the local menu catalog ordered for display.
func (r *MenuRepository) GetAll() ([]MenuItem, error) {
	const stmt = `
		SELECT item_guid, item_name, menu, group_path
		FROM menu_items ORDER BY menu, item_name`

	rows, err := r.db.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var result []MenuItem
	for rows.Next() {
		var item MenuItem
		var menu, groupPath sql.NullString

		if err := rows.Scan(&item.ItemGUID, &item.ItemName, &menu, &groupPath); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		item.Menu = nullableString(menu)
		item.GroupPath = nullableString(groupPath)
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu rows: %w", err)
	}

	return result, nil
}
