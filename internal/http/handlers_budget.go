package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/services"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.budget.ListCategories(r.Context(), userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCategoryViews(cats))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cat, err := s.budget.CreateCategory(r.Context(), userFrom(r), req.Name, core.CategoryType(req.Type))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toCategoryView(cat))
}

func (s *Server) handleCategoryVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cat, err := s.budget.SetCategoryVisibility(r.Context(), userFrom(r), r.PathValue("id"), *req.IsVisible)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCategoryView(cat))
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req renameCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cat, err := s.budget.RenameCategory(r.Context(), userFrom(r), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Category name updated successfully", toCategoryView(cat))
}

// handleDeleteCategory takes the fate of the category's items from the
// items query parameter: cascade deletes them, orphan keeps them.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	policy, err := services.ParseDeletePolicy(r.URL.Query().Get("items"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.budget.DeleteCategory(r.Context(), userFrom(r), r.PathValue("id"), policy); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Category deleted successfully", nil)
}

// handleListItems returns the items active in the requested month,
// recurring ones included.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.budget.ListItems(r.Context(), userFrom(r), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toItemViews(items))
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	it, err := s.budget.CreateItem(r.Context(), userFrom(r), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toItemView(it))
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID, id := userFrom(r), r.PathValue("id")

	var current core.Period
	if (req.Month == nil) != (req.Year == nil) {
		// A partial anchor change needs the stored anchor.
		stored, err := s.budget.GetItem(r.Context(), userID, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		current = stored.Period
	}
	patch := req.toPatch(current)

	it, err := s.budget.UpdateItem(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toItemView(it))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteItem(r.Context(), userFrom(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Budget item deleted successfully", nil)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.reports.Summary(r.Context(), userFrom(r), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sum.Rounded())
}
