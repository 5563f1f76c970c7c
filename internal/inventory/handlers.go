package inventory

import (
	"net/http"
	"strings"

	"slawbackend/internal/data"
	"slawbackend/internal/middleware"
)

// StockHandler handles GET /api/stock. With ?grouped=1 the payload is
// bucketed by category in dashboard order.
func (s *Service) StockHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("grouped") != "" {
		groups, err := s.StockByCategory()
		if err != nil {
			middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
				"Failed to load stock", err.Error())
			return
		}
		if groups == nil {
			groups = []CategoryGroup{}
		}
		middleware.WriteJSON(w, http.StatusOK, groups)
		return
	}

	stock, err := s.Stock()
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
			"Failed to load stock", err.Error())
		return
	}
	if stock == nil {
		stock = []data.Ingredient{}
	}
	middleware.WriteJSON(w, http.StatusOK, stock)
}

type ingredientInput struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Unit        string  `json:"unit"`
	CostPerUnit float64 `json:"cost_per_unit"`
	Threshold   float64 `json:"threshold"`
}

// IngredientsHandler handles POST /api/ingredients, creating an ingredient.
func (s *Service) IngredientsHandler(w http.ResponseWriter, r *http.Request) {
	var input ingredientInput
	input.Threshold = 5
	if err := middleware.ParseJSONRequest(r, &input); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
			"Invalid JSON request", err.Error())
		return
	}
	if input.Name == "" {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
			"Name is required", "")
		return
	}

	item, err := s.AddIngredient(input.Name, input.Category, input.Unit, input.CostPerUnit, input.Threshold)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
			"Failed to create ingredient", err.Error())
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"message": "Ingredient created",
		"item":    item,
	})
}

// IngredientByIDHandler handles PUT/POST (update) and DELETE on
// /api/ingredients/{id}.
func (s *Service) IngredientByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/ingredients/")
	if id == "" {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
			"Missing ingredient id", "")
		return
	}

	switch r.Method {
	case http.MethodPut, http.MethodPost:
		var updates map[string]interface{}
		if err := middleware.ParseJSONRequest(r, &updates); err != nil {
			middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
				"Invalid JSON request", err.Error())
			return
		}

		updated, err := s.UpdateIngredient(id, updates)
		if err != nil {
			middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
				"Failed to update ingredient", err.Error())
			return
		}
		if !updated {
			middleware.WriteAPIError(w, r, http.StatusNotFound, "not_found", "Ingredient not found", "")
			return
		}
		middleware.WriteAPISuccess(w, r, map[string]interface{}{"message": "Ingredient updated"})

	case http.MethodDelete:
		deleted, err := s.DeleteIngredient(id)
		if err != nil {
			middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
				"Failed to delete ingredient", err.Error())
			return
		}
		if !deleted {
			middleware.WriteAPIError(w, r, http.StatusNotFound, "not_found", "Ingredient not found", "")
			return
		}
		middleware.WriteAPISuccess(w, r, map[string]interface{}{"message": "Ingredient deleted"})

	default:
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Method not allowed", r.Method)
	}
}

type recipeInput struct {
	MenuGUID   string                 `json:"menu_guid"`
	Components []data.RecipeComponent `json:"components"`
}

// RecipesHandler handles GET (all recipes) and POST (save) on /api/recipes.
func (s *Service) RecipesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		recipes, err := s.Recipes()
		if err != nil {
			middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
				"Failed to load recipes", err.Error())
			return
		}
		middleware.WriteJSON(w, http.StatusOK, recipes)

	case http.MethodPost:
		var input recipeInput
		if err := middleware.ParseJSONRequest(r, &input); err != nil {
			middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
				"Invalid JSON request", err.Error())
			return
		}
		if input.MenuGUID == "" {
			middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
				"Menu GUID is required", "")
			return
		}

		if err := s.SaveRecipe(input.MenuGUID, input.Components); err != nil {
			middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
				"Failed to save recipe", err.Error())
			return
		}
		middleware.WriteAPISuccess(w, r, map[string]interface{}{"message": "Recipe saved successfully"})

	default:
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Method not allowed", r.Method)
	}
}

// RecipeByGUIDHandler handles DELETE /api/recipes/{guid}.
func (s *Service) RecipeByGUIDHandler(w http.ResponseWriter, r *http.Request) {
	guid := strings.TrimPrefix(r.URL.Path, "/api/recipes/")
	if guid == "" {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
			"Missing recipe GUID", "")
		return
	}

	deleted, err := s.DeleteRecipe(guid)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
			"Failed to delete recipe", err.Error())
		return
	}
	if !deleted {
		middleware.WriteAPIError(w, r, http.StatusNotFound, "not_found", "Recipe not found", "")
		return
	}
	middleware.WriteAPISuccess(w, r, map[string]interface{}{"message": "Recipe deleted"})
}
