package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreify/internal/backup"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/snapshot"
	"github.com/dukerupert/choreify/internal/websocket"
)

// DataHandler serves snapshot export and object storage backups.
type DataHandler struct {
	base
	snapshots *snapshot.Service
	backups   *backup.Manager
}

func NewDataHandler(snaps *snapshot.Service, mgr *backup.Manager, hub *websocket.Hub, sink notify.Sink, logger *slog.Logger) *DataHandler {
	return &DataHandler{base: newBase(hub, sink, logger), snapshots: snaps, backups: mgr}
}

func (h *DataHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	doc, err := h.snapshots.Export(r.Context())
	if err != nil {
		h.fail(w, r, err, "failed to export data")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="choreify-snapshot.json"`)
	writeJSON(w, http.StatusOK, doc)
}

func (h *DataHandler) Import(w http.ResponseWriter, r *http.Request) {
	doc, err := snapshot.Read(r.Body)
	if err != nil {
		h.fail(w, r, err, "failed to read snapshot")
		return
	}
	if err := h.snapshots.Import(r.Context(), doc); err != nil {
		h.fail(w, r, err, "failed to import data")
		return
	}

	h.notify.Notify(r.Context(), "Data imported successfully", notify.LevelSuccess)
	h.broadcast(websocket.NewMessage("data", "imported", "", nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *DataHandler) BackupStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backups.Status())
}

func (h *DataHandler) RunBackup(w http.ResponseWriter, r *http.Request) {
	b, err := h.backups.RunNow(r.Context())
	if err != nil {
		h.fail(w, r, err, "backup failed")
		return
	}
	h.notify.Notify(r.Context(), "Backup completed", notify.LevelSuccess)
	writeJSON(w, http.StatusCreated, b)
}

func (h *DataHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil || limit < 1 {
		badRequest(w, "limit must be a positive integer")
		return
	}
	list, err := h.backups.List(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err, "failed to list backups")
		return
	}
	if list == nil {
		list = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *DataHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.backups.Restore(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err, "restore failed")
		return
	}

	h.notify.Notify(r.Context(), "Backup restored", notify.LevelSuccess)
	h.broadcast(websocket.NewMessage("data", "restored", r.PathValue("id"), nil))
	w.WriteHeader(http.StatusNoContent)
}
