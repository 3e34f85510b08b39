package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreify/internal/calendar"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/websocket"
)

type CalendarHandler struct {
	base
	adapter *calendar.Adapter
}

func NewCalendarHandler(adapter *calendar.Adapter, hub *websocket.Hub, sink notify.Sink, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{base: newBase(hub, sink, logger), adapter: adapter}
}

func (h *CalendarHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.adapter.Status(r.Context())
	if err != nil {
		h.fail(w, r, err, "failed to get calendar status")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type connectRequest struct {
	Provider string `json:"provider"`
	AuthCode string `json:"authCode"`
}

func (h *CalendarHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	res, err := h.adapter.Connect(r.Context(), req.Provider, req.AuthCode)
	if err != nil {
		h.fail(w, r, err, "failed to connect calendar")
		return
	}

	h.broadcast(websocket.NewMessage("calendar", "connected", req.Provider, nil))
	writeJSON(w, http.StatusOK, res)
}

func (h *CalendarHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.adapter.Disconnect(r.Context()); err != nil {
		h.fail(w, r, err, "failed to disconnect calendar")
		return
	}

	h.broadcast(websocket.NewMessage("calendar", "disconnected", "", nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CalendarHandler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.adapter.SyncAll(r.Context())
	if err != nil {
		h.fail(w, r, err, "failed to sync calendar")
		return
	}

	h.broadcast(websocket.NewMessage("calendar", "synced", "", nil))
	writeJSON(w, http.StatusOK, res)
}

func (h *CalendarHandler) ChoreStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.adapter.ChoreStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to get chore sync status")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
