package expenses

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/wealthpulse/backend/internal/httpx"
	"github.com/wealthpulse/backend/internal/models"
)

// Handler holds expense HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the expense endpoints. Static segments win over
// {expenseId} and {identifier} in chi, so the category routes are safe.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/categories/{identifier}", h.Categories)
	r.Get("/category/{identifier}/{category}", h.ListByCategory)
	r.Delete("/category/{identifier}/{category}", h.DeleteCategory)
	r.Put("/category/{identifier}/{category}", h.RenameCategory)
	r.Get("/{identifier}", h.List)
	r.Put("/{expenseId}", h.Update)
	r.Delete("/{expenseId}", h.Delete)
}

// List returns all expenses for a user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identifier, err := pathParam(r, "identifier")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid identifier")
		return
	}
	expenses, err := h.svc.List(r.Context(), identifier)
	if err != nil {
		h.fail(w, r, "list expenses", err, "Failed to fetch expenses")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, expenses)
}

// Categories returns the per-category roll-up for a user.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	identifier, err := pathParam(r, "identifier")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid identifier")
		return
	}
	categories, err := h.svc.Categories(r.Context(), identifier)
	if err != nil {
		h.fail(w, r, "list categories", err, "Failed to fetch categories")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, categories)
}

// ListByCategory returns a user's expenses in one category.
func (h *Handler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	identifier, err := pathParam(r, "identifier")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid identifier")
		return
	}
	category, err := pathParam(r, "category")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid category name")
		return
	}
	expenses, err := h.svc.ListByCategory(r.Context(), identifier, category)
	if err != nil {
		h.fail(w, r, "list category expenses", err, "Failed to fetch category expenses")
		return
	}
	slog.DebugContext(r.Context(), "fetched category expenses", "category", category, "count", len(expenses))
	httpx.WriteJSON(w, http.StatusOK, expenses)
}

// Create adds an expense.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateExpenseRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	expense, err := h.svc.Add(r.Context(), req)
	if err != nil {
		h.fail(w, r, "add expense", err, "Failed to add expense")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Expense added successfully",
		"expense": expense,
	})
}

// Update changes the supplied fields of an expense.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateExpenseRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	expense, err := h.svc.Update(r.Context(), chi.URLParam(r, "expenseId"), req)
	if err != nil {
		h.fail(w, r, "update expense", err, "Failed to update expense")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Expense updated successfully",
		"expense": expense,
	})
}

// Delete removes a single expense.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	expense, err := h.svc.Delete(r.Context(), chi.URLParam(r, "expenseId"))
	if err != nil {
		h.fail(w, r, "delete expense", err, "Failed to delete expense")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Expense deleted successfully",
		"expense": expense,
	})
}

// DeleteCategory removes every expense of a user in one category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	identifier, err := pathParam(r, "identifier")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid identifier")
		return
	}
	category, err := pathParam(r, "category")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid category name")
		return
	}
	n, err := h.svc.DeleteCategory(r.Context(), identifier, category)
	if err != nil {
		h.fail(w, r, "delete category", err, "Failed to delete category expenses")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":      fmt.Sprintf("Deleted %d expenses from category: %s", n, category),
		"deletedCount": n,
	})
}

// RenameCategory moves every expense of a user to a new category name.
func (h *Handler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	var req models.RenameCategoryRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	identifier, err := pathParam(r, "identifier")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid identifier")
		return
	}
	oldCategory, err := pathParam(r, "category")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid category name")
		return
	}
	n, err := h.svc.RenameCategory(r.Context(), identifier, oldCategory, req.NewCategory)
	if err != nil {
		h.fail(w, r, "rename category", err, "Failed to update category name")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":       fmt.Sprintf("Updated %d expenses from category: %s to %s", n, oldCategory, req.NewCategory),
		"modifiedCount": n,
	})
}

// fail maps service errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error, msg string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.Error(w, http.StatusBadRequest, verr.Msg)
	case IsUnknownUser(err):
		httpx.Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrExpenseNotFound):
		httpx.Error(w, http.StatusNotFound, "Expense not found")
	default:
		httpx.ServerError(w, r, op, err, msg)
	}
}

// pathParam returns a path segment decoded exactly once.
// chi matches on the raw path only when the request carried escapes the
// default encoding would not produce (such as %2F); otherwise the
// segment has already been decoded by net/url.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}
