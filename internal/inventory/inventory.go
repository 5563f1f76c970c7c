package inventory

import (
	"fmt"

	"slawbackend/internal/data"
	"slawbackend/internal/logger"
)

// categoryOrder is the display order the dashboard expects; categories not
// listed here sort after these, in encounter order.
var categoryOrder = []string{"Meat", "Bread", "Produce", "Dairy", "sides", "Sauce", "Drink", "Dessert"}

// Service owns ingredient and recipe management.
type Service struct {
	ingredients *data.IngredientRepository
	recipes     *data.RecipeRepository
}

func NewService(ingredients *data.IngredientRepository, recipes *data.RecipeRepository) *Service {
	return &Service{ingredients: ingredients, recipes: recipes}
}

// Stock returns every ingredient sorted by name.
func (s *Service) Stock() ([]data.Ingredient, error) {
	return s.ingredients.GetAll()
}

// CategoryGroup is one category bucket of the grouped stock payload.
type CategoryGroup struct {
	Category    string            `json:"category"`
	Ingredients []data.Ingredient `json:"ingredients"`
}

// StockByCategory groups ingredients into the dashboard's category order.
func (s *Service) StockByCategory() ([]CategoryGroup, error) {
	all, err := s.ingredients.GetAll()
	if err != nil {
		return nil, err
	}

	buckets := make(map[string][]data.Ingredient)
	var extras []string
	for _, ing := range all {
		category := ing.Category
		if category == "" {
			category = "Other"
		}
		if _, seen := buckets[category]; !seen && !isOrderedCategory(category) {
			extras = append(extras, category)
		}
		buckets[category] = append(buckets[category], ing)
	}

	var groups []CategoryGroup
	for _, category := range categoryOrder {
		if ingredients, ok := buckets[category]; ok {
			groups = append(groups, CategoryGroup{Category: category, Ingredients: ingredients})
		}
	}
	for _, category := range extras {
		groups = append(groups, CategoryGroup{Category: category, Ingredients: buckets[category]})
	}

	return groups, nil
}

func isOrderedCategory(category string) bool {
	for _, c := range categoryOrder {
		if c == category {
			return true
		}
	}
	return false
}

// AddIngredient creates an ingredient with defaults matching the dashboard's
// add form. Stock always starts at zero; deliveries raise it.
func (s *Service) AddIngredient(name, category, unit string, costPerUnit, threshold float64) (*data.Ingredient, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if category == "" {
		category = "Other"
	}
	if unit == "" {
		unit = "unit"
	}

	ing, err := s.ingredients.Insert(data.Ingredient{
		Name:        name,
		Category:    category,
		Unit:        unit,
		CostPerUnit: costPerUnit,
		Threshold:   threshold,
	})
	if err != nil {
		return nil, err
	}

	logger.LogInfo("Created ingredient %s (%s)", ing.Name, ing.ID)
	return ing, nil
}

// UpdateIngredient applies a partial update of the allowed fields.
func (s *Service) UpdateIngredient(id string, updates map[string]interface{}) (bool, error) {
	return s.ingredients.Update(id, updates)
}

// DeleteIngredient removes an ingredient and any recipe lines referencing it.
func (s *Service) DeleteIngredient(id string) (bool, error) {
	return s.ingredients.Delete(id)
}

// Recipes returns every configured recipe keyed by menu item GUID.
func (s *Service) Recipes() (map[string][]data.RecipeComponent, error) {
	return s.recipes.GetAll()
}

// SaveRecipe replaces the full component list for a menu item.
func (s *Service) SaveRecipe(menuItemGUID string, components []data.RecipeComponent) error {
	if menuItemGUID == "" {
		return fmt.Errorf("menu item GUID is required")
	}
	if err := s.recipes.Replace(menuItemGUID, components); err != nil {
		return err
	}
	logger.LogInfo("Saved recipe for %s (%d components)", menuItemGUID, len(components))
	return nil
}

// DeleteRecipe removes every component for a menu item.
func (s *Service) DeleteRecipe(menuItemGUID string) (bool, error) {
	return s.recipes.Delete(menuItemGUID)
}
