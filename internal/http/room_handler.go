package http

import (
	"log/slog"
	"net/http"

	"github.com/Mikkung/MeetingRoom-Proj/internal/catalog"
)

type roomCatalog interface {
	Rooms() []catalog.Room
}

// RoomHandler serves the static room catalog. The catalog never changes
// after startup, so listing is public and needs no service layer.
type RoomHandler struct {
	catalog   roomCatalog
	responder responder
}

func NewRoomHandler(rooms roomCatalog, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{catalog: rooms, responder: newResponder(defaultLogger(logger))}
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.catalog == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(h.catalog.Rooms())})
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID           string `json:"id"`
	Capacity     int    `json:"capacity"`
	HasProjector bool   `json:"has_projector"`
}

func toRoomDTOs(rooms []catalog.Room) []roomDTO {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, roomDTO{
			ID:           room.ID,
			Capacity:     room.Capacity,
			HasProjector: room.HasProjector,
		})
	}
	return out
}
