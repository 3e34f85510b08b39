package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/websocket"
	"github.com/dukerupert/choreify/internal/workflow"
)

// SettingsHandler exposes the household switches that are not owned by a
// more specific handler.
type SettingsHandler struct {
	base
	flow *workflow.Coordinator
}

func NewSettingsHandler(flow *workflow.Coordinator, hub *websocket.Hub, sink notify.Sink, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{base: newBase(hub, sink, logger), flow: flow}
}

type approvalSettings struct {
	Required bool `json:"required"`
}

func (h *SettingsHandler) GetApproval(w http.ResponseWriter, r *http.Request) {
	required, err := h.flow.ApprovalRequired(r.Context())
	if err != nil {
		h.fail(w, r, err, "failed to get approval setting")
		return
	}
	writeJSON(w, http.StatusOK, approvalSettings{Required: required})
}

func (h *SettingsHandler) UpdateApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalSettings
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	if err := h.flow.SetApprovalRequired(r.Context(), req.Required); err != nil {
		h.fail(w, r, err, "failed to save approval setting")
		return
	}

	h.broadcast(websocket.NewMessage("settings", "updated", "approval", nil))
	writeJSON(w, http.StatusOK, req)
}
