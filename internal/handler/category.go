package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/choreify/internal/category"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/store"
	"github.com/dukerupert/choreify/internal/websocket"
)

type CategoryHandler struct {
	base
	categoryStore *store.CategoryStore
}

func NewCategoryHandler(cs *store.CategoryStore, hub *websocket.Hub, sink notify.Sink, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{base: newBase(hub, sink, logger), categoryStore: cs}
}

type categoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categoryStore.List()
	if err != nil {
		h.fail(w, r, err, "failed to list categories")
		return
	}
	if cats == nil {
		cats = []model.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	cat, err := h.categoryStore.Create(model.Category{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		h.fail(w, r, err, "failed to create category")
		return
	}

	h.broadcast(websocket.NewMessage("category", "created", cat.ID, nil))
	writeJSON(w, http.StatusCreated, cat)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	existing, err := h.categoryStore.GetByID(id)
	if err != nil {
		h.fail(w, r, err, "failed to get category")
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
		return
	}

	cat, err := h.categoryStore.Update(id, req.Name, req.Icon, req.Color)
	if err != nil {
		h.fail(w, r, err, "failed to update category")
		return
	}

	h.broadcast(websocket.NewMessage("category", "updated", cat.ID, nil))
	writeJSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.categoryStore.Delete(id); err != nil {
		if errors.Is(err, store.ErrDefaultCategory) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return
		}
		h.fail(w, r, err, "failed to delete category")
		return
	}

	h.broadcast(websocket.NewMessage("category", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Suggest picks a seeded category for the title query parameter. The
// category is null when no keyword matches.
func (h *CategoryHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		badRequest(w, "title is required")
		return
	}

	id := category.Suggest(title)
	if id == "" {
		writeJSON(w, http.StatusOK, map[string]any{"categoryId": nil})
		return
	}
	cat, err := h.categoryStore.GetByID(id)
	if err != nil {
		h.fail(w, r, err, "failed to suggest category")
		return
	}
	if cat == nil {
		writeJSON(w, http.StatusOK, map[string]any{"categoryId": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categoryId": cat.ID, "category": cat})
}
