package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/tignatov6/CallMi/internal/directory"
	"github.com/tignatov6/CallMi/internal/signal"
)

type RoomsAPI struct {
	Log    *slog.Logger
	Dir    directory.Directory
	Events signal.Publisher
}

type createRoomReq struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type roomResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	HasPassword bool   `json:"hasPassword"`
}

// Create handles new room creation
func (a *RoomsAPI) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	room, err := a.Dir.Create(r.Context(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, directory.ErrDuplicateName) {
			http.Error(w, "room name already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := a.Events.Publish(r.Context(), signal.EventRoomCreated); err != nil {
		a.Log.Error("rooms.publish", "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(roomResponse{
		ID: room.ID, Name: room.Name, HasPassword: room.HasPassword(),
	})
}

// List returns all rooms as public summaries
func (a *RoomsAPI) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := a.Dir.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		resp = append(resp, roomResponse{
			ID: room.ID, Name: room.Name, HasPassword: room.HasPassword(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
