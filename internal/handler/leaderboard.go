package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreify/internal/auth"
	"github.com/dukerupert/choreify/internal/leaderboard"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/websocket"
)

type LeaderboardHandler struct {
	base
	svc *leaderboard.Service
}

func NewLeaderboardHandler(svc *leaderboard.Service, hub *websocket.Hub, sink notify.Sink, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{base: newBase(hub, sink, logger), svc: svc}
}

func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Leaderboard(r.Context())
	if err != nil {
		h.fail(w, r, err, "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Me reports the acting user's rank and points. Rank is null when the user
// has nothing scored in the current window.
func (h *LeaderboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	rank, ok, err := h.svc.UserRank(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "failed to load rank")
		return
	}
	points, err := h.svc.UserPoints(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "failed to load points")
		return
	}

	resp := map[string]any{"userId": userID, "points": points, "rank": nil}
	if ok {
		resp["rank"] = rank
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LeaderboardHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err, "failed to get leaderboard settings")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type leaderboardSettingsRequest struct {
	Enabled   *bool            `json:"enabled"`
	TimeFrame *model.TimeFrame `json:"timeFrame"`
}

func (h *LeaderboardHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req leaderboardSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	if req.TimeFrame != nil {
		if err := h.svc.SetTimeFrame(r.Context(), *req.TimeFrame); err != nil {
			h.fail(w, r, err, "failed to save leaderboard settings")
			return
		}
	}
	if req.Enabled != nil {
		if err := h.svc.SetEnabled(r.Context(), *req.Enabled); err != nil {
			h.fail(w, r, err, "failed to save leaderboard settings")
			return
		}
	}

	cfg, err := h.svc.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err, "failed to get leaderboard settings")
		return
	}

	h.broadcast(websocket.NewMessage("settings", "updated", "leaderboard", nil))
	writeJSON(w, http.StatusOK, cfg)
}
