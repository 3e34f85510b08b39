package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreify/internal/chore"
	"github.com/dukerupert/choreify/internal/collab"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/websocket"
	"github.com/dukerupert/choreify/internal/workflow"
)

// CollabHandler serves comments, the activity feed and swap offers.
type CollabHandler struct {
	base
	engine *collab.Engine
	chores *chore.Service
	flow   *workflow.Coordinator
}

func NewCollabHandler(engine *collab.Engine, cs *chore.Service, flow *workflow.Coordinator, hub *websocket.Hub, sink notify.Sink, logger *slog.Logger) *CollabHandler {
	return &CollabHandler{
		base:   newBase(hub, sink, logger),
		engine: engine,
		chores: cs,
		flow:   flow,
	}
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *CollabHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.engine.CommentsByChore(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to list comments")
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *CollabHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	c, err := h.chores.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to add comment")
		return
	}

	comment, err := h.engine.AddComment(r.Context(), c.ID, req.Text, c.Title)
	if err != nil {
		h.fail(w, r, err, "failed to add comment")
		return
	}

	h.broadcast(websocket.NewMessage("comment", "created", comment.ID, map[string]any{"choreId": c.ID}))
	writeJSON(w, http.StatusCreated, comment)
}

func (h *CollabHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	comment, err := h.engine.UpdateComment(r.Context(), r.PathValue("id"), req.Text)
	if err != nil {
		h.fail(w, r, err, "failed to update comment")
		return
	}

	h.broadcast(websocket.NewMessage("comment", "updated", comment.ID, map[string]any{"choreId": comment.ChoreID}))
	writeJSON(w, http.StatusOK, comment)
}

func (h *CollabHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.engine.DeleteComment(r.Context(), id); err != nil {
		h.fail(w, r, err, "failed to delete comment")
		return
	}

	h.broadcast(websocket.NewMessage("comment", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CollabHandler) Activities(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", collab.DefaultActivityLimit)
	if err != nil || limit < 1 {
		badRequest(w, "limit must be a positive integer")
		return
	}

	activities, err := h.engine.RecentActivities(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err, "failed to list activities")
		return
	}
	if activities == nil {
		activities = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

// SwapStatus returns the chore's latest offer, or null when it was never
// offered or the offer was cancelled.
func (h *CollabHandler) SwapStatus(w http.ResponseWriter, r *http.Request) {
	offer, err := h.engine.ChoreSwapStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to get swap status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"offer": offer})
}

func (h *CollabHandler) ListSwaps(w http.ResponseWriter, r *http.Request) {
	offers, err := h.engine.AvailableChores(r.Context())
	if err != nil {
		h.fail(w, r, err, "failed to list swap offers")
		return
	}
	if offers == nil {
		offers = []model.SwapOffer{}
	}
	writeJSON(w, http.StatusOK, offers)
}

func (h *CollabHandler) Claim(w http.ResponseWriter, r *http.Request) {
	offer, c, err := h.flow.Claim(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to claim chore")
		return
	}

	h.broadcast(websocket.NewMessage("swap", "claimed", offer.ID, map[string]any{"choreId": offer.ChoreID}))
	h.broadcast(websocket.NewMessage("chore", "updated", c.ID, nil))
	writeJSON(w, http.StatusOK, map[string]any{"offer": offer, "chore": c})
}

func (h *CollabHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	offer, err := h.flow.CancelOffer(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to cancel swap offer")
		return
	}

	h.broadcast(websocket.NewMessage("swap", "cancelled", offer.ID, map[string]any{"choreId": offer.ChoreID}))
	writeJSON(w, http.StatusOK, offer)
}
