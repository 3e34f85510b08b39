package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/websocket"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// errorStatus maps a service error to its HTTP status and client message.
// Unexpected errors are hidden behind fallback.
func errorStatus(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrOfferClosed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized, "authorization required"
	default:
		return http.StatusInternalServerError, fallback
	}
}

// base carries what every handler needs to answer: the hub for change
// events and a sink for failure notifications.
type base struct {
	hub    *websocket.Hub
	notify notify.Sink
	logger *slog.Logger
}

func newBase(hub *websocket.Hub, sink notify.Sink, logger *slog.Logger) base {
	if sink == nil {
		sink = notify.Discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return base{hub: hub, notify: sink, logger: logger}
}

func (b base) broadcast(msg websocket.Message) {
	if b.hub != nil {
		b.hub.Broadcast(msg)
	}
}

// fail writes the error response and tells the acting user what went wrong.
// Client mistakes are warnings; everything else is logged and reported as an
// error.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := errorStatus(err, fallback)
	if status >= http.StatusInternalServerError {
		b.logger.Error(fallback, "error", err, "path", r.URL.Path)
		b.notify.Notify(r.Context(), fallback, notify.LevelError)
	} else if status != http.StatusUnauthorized {
		b.notify.Notify(r.Context(), msg, notify.LevelWarning)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
