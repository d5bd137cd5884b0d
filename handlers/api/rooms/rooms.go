package rooms

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/sirupsen/logrus"
)

func HandleListRooms(store core.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := store.ListRooms(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list room layouts")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list room layouts"})
			return
		}
		if rooms == nil {
			rooms = []*core.Room{}
		}
		render.JSON(w, r, rooms)
	}
}

func HandleGetRoom(store core.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid room ID"})
			return
		}

		room, err := store.GetRoom(r.Context(), core.ID(id))
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Room layout not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"roomID": id,
			}).Error("Failed to get room layout")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to get room layout"})
			return
		}
		render.JSON(w, r, room)
	}
}
