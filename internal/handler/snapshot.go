package handler

import (
	"log"
	"net/http"

	"github.com/rgoodwin/tasktally/internal/archive"
	"github.com/rgoodwin/tasktally/internal/model"
	"github.com/rgoodwin/tasktally/internal/store"
)

const snapshotListLimit = 50

type SnapshotHandler struct {
	manager   *archive.Manager
	snapshots *store.SnapshotStore
}

func NewSnapshotHandler(m *archive.Manager, ss *store.SnapshotStore) *SnapshotHandler {
	return &SnapshotHandler{manager: m, snapshots: ss}
}

// Run takes an encrypted snapshot immediately.
func (h *SnapshotHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil || !h.manager.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "snapshots not configured"})
		return
	}

	snap, err := h.manager.RunNow(r.Context())
	if err != nil {
		log.Printf("failed to take snapshot: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to take snapshot"})
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

// List returns recent snapshots, newest first.
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.snapshots.List(snapshotListLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list snapshots"})
		return
	}
	if snaps == nil {
		snaps = []model.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}
