package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/choreify/internal/chore"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/websocket"
	"github.com/dukerupert/choreify/internal/workflow"
)

type ChoreHandler struct {
	base
	chores *chore.Service
	flow   *workflow.Coordinator
	now    func() time.Time
}

func NewChoreHandler(cs *chore.Service, flow *workflow.Coordinator, hub *websocket.Hub, sink notify.Sink, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{
		base:   newBase(hub, sink, logger),
		chores: cs,
		flow:   flow,
		now:    time.Now,
	}
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in chore.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	c, err := h.chores.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "failed to create chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "created", c.ID, nil))
	writeJSON(w, http.StatusCreated, chore.Annotate(*c, h.now()))
}

// List returns chores with their derived status. The optional status and
// assignee query parameters narrow the result.
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		chores []model.Chore
		err    error
	)
	if assignee := r.URL.Query().Get("assignee"); assignee != "" {
		chores, err = h.chores.ListByAssignee(r.Context(), assignee)
	} else {
		chores, err = h.chores.List(r.Context())
	}
	if err != nil {
		h.fail(w, r, err, "failed to list chores")
		return
	}

	annotated := chore.AnnotateAll(chores, h.now())
	if status := chore.Status(r.URL.Query().Get("status")); status != "" {
		filtered := annotated[:0]
		for _, c := range annotated {
			if c.Status == status {
				filtered = append(filtered, c)
			}
		}
		annotated = filtered
	}
	writeJSON(w, http.StatusOK, annotated)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.chores.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to get chore")
		return
	}
	writeJSON(w, http.StatusOK, chore.Annotate(*c, h.now()))
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p chore.Patch
	if err := decodeJSON(r, &p); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	c, err := h.chores.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		h.fail(w, r, err, "failed to update chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "updated", c.ID, nil))
	writeJSON(w, http.StatusOK, chore.Annotate(*c, h.now()))
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.chores.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "failed to delete chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChoreHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	chores, err := h.chores.ListOverdue(r.Context(), now)
	if err != nil {
		h.fail(w, r, err, "failed to list overdue chores")
		return
	}
	writeJSON(w, http.StatusOK, chore.AnnotateAll(chores, now))
}

func (h *ChoreHandler) Today(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	chores, err := h.chores.ListDueToday(r.Context(), now)
	if err != nil {
		h.fail(w, r, err, "failed to list chores due today")
		return
	}
	writeJSON(w, http.StatusOK, chore.AnnotateAll(chores, now))
}

// transition runs one workflow step on the chore named in the path and
// answers with the updated chore.
func (h *ChoreHandler) transition(w http.ResponseWriter, r *http.Request, action string, step func(id string) (*model.Chore, error)) {
	c, err := step(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to "+action+" chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", action+"d", c.ID, nil))
	writeJSON(w, http.StatusOK, chore.Annotate(*c, h.now()))
}

func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete", func(id string) (*model.Chore, error) {
		return h.flow.Complete(r.Context(), id)
	})
}

func (h *ChoreHandler) Uncomplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "uncomplete", func(id string) (*model.Chore, error) {
		return h.flow.Uncomplete(r.Context(), id)
	})
}

func (h *ChoreHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve", func(id string) (*model.Chore, error) {
		return h.flow.Approve(r.Context(), id)
	})
}

func (h *ChoreHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject", func(id string) (*model.Chore, error) {
		return h.flow.Reject(r.Context(), id)
	})
}

// Offer puts the chore up for grabs. A chore that already has an open offer
// answers 409 with that offer.
func (h *ChoreHandler) Offer(w http.ResponseWriter, r *http.Request) {
	offer, ok, err := h.flow.Offer(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to offer chore")
		return
	}
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "chore is already up for grabs",
			"offer": offer,
		})
		return
	}

	h.broadcast(websocket.NewMessage("swap", "offered", offer.ID, map[string]any{"choreId": offer.ChoreID}))
	writeJSON(w, http.StatusCreated, offer)
}
