package network

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"arena/room"
)

const snapshotTimeout = 2 * time.Second

// NewMux routes the websocket endpoint and the room API.
func NewMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /ws", h)
	mux.HandleFunc("GET /rooms", h.listRooms)
	mux.HandleFunc("POST /rooms", h.createRoom)
	mux.HandleFunc("GET /rooms/{code}/snapshot", h.snapshot)
	return mux
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rooms.ListRooms())
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	code := h.rooms.CreateRoom()
	h.logger.Printf("api: created room %s", code)
	writeJSON(w, http.StatusCreated, map[string]string{"code": code})
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	rm, ok := h.rooms.Get(code)
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
	defer cancel()
	snap, err := rm.Snapshot(ctx)
	switch {
	case errors.Is(err, room.ErrStopped):
		http.Error(w, "room closed", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	b, err := snap.Marshal()
	if err != nil {
		h.logger.Printf("api: snapshot %s: %v", code, err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/msgpack")
	_, _ = w.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
