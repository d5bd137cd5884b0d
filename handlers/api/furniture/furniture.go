package furniture

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/geometry"
	"github.com/paulIordache/Architecture-Web/middleware"
	"github.com/sirupsen/logrus"
)

// Store is what the furniture handlers need from the backend.
type Store interface {
	core.ProjectStore
	core.CatalogStore
	core.PlacementStore
}

type createRequest struct {
	ProjectID   core.ID `json:"project_id"`
	FurnitureID core.ID `json:"furniture_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Rotation    float64 `json:"rotation"`
}

// updateRequest fields are optional; omitted ones keep their stored value.
type updateRequest struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Z        *float64 `json:"z"`
	Rotation *float64 `json:"rotation"`
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func HandleListCatalog(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.ListFurniture(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list furniture")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list furniture"})
			return
		}
		if items == nil {
			items = []*core.Furniture{}
		}
		render.JSON(w, r, items)
	}
}

func HandleCreatePlaced(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.Claims(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}
		if req.ProjectID == core.NoID || req.FurnitureID == core.NoID {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "project_id and furniture_id are required"})
			return
		}
		if !finite(req.X, req.Y, req.Z, req.Rotation) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Coordinates must be finite numbers"})
			return
		}

		log := logrus.WithFields(logrus.Fields{
			"userID":      claims.UserID,
			"projectID":   req.ProjectID,
			"furnitureID": req.FurnitureID,
		})
		if _, err := store.GetProject(r.Context(), claims.UserID, req.ProjectID); err != nil {
			writeStoreError(w, r, log, err, "Project not found")
			return
		}
		if _, err := store.GetFurniture(r.Context(), req.FurnitureID); err != nil {
			writeStoreError(w, r, log, err, "Furniture not found")
			return
		}

		placed := &core.PlacedObject{
			ProjectID:   req.ProjectID,
			FurnitureID: req.FurnitureID,
			X:           req.X,
			Y:           req.Y,
			Z:           req.Z,
			Rotation:    geometry.NormalizeAngle(req.Rotation),
		}
		if err := store.CreatePlaced(r.Context(), placed); err != nil {
			writeStoreError(w, r, log, err, "Furniture not found")
			return
		}

		log.WithField("placedID", placed.ID).Info("Furniture placed")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, placed)
	}
}

func HandleUpdatePlaced(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, log, ok := ownedPlaced(w, r, store)
		if !ok {
			return
		}

		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		t := existing.Transform()
		if req.X != nil {
			t.Position.X = *req.X
		}
		if req.Y != nil {
			t.Position.Y = *req.Y
		}
		if req.Z != nil {
			t.Position.Z = *req.Z
		}
		if req.Rotation != nil {
			t.Rotation = *req.Rotation
		}
		if !finite(t.Position.X, t.Position.Y, t.Position.Z, t.Rotation) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Coordinates must be finite numbers"})
			return
		}
		t.Rotation = geometry.NormalizeAngle(t.Rotation)

		updated, err := store.UpdatePlaced(r.Context(), existing.ID, t)
		if err != nil {
			writeStoreError(w, r, log, err, "Furniture not found")
			return
		}
		log.Debug("Furniture position updated")
		render.JSON(w, r, updated)
	}
}

func HandleDeletePlaced(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, log, ok := ownedPlaced(w, r, store)
		if !ok {
			return
		}

		if err := store.DeletePlaced(r.Context(), existing.ID); err != nil {
			writeStoreError(w, r, log, err, "Furniture not found")
			return
		}
		log.Info("Furniture deleted")
		render.JSON(w, r, map[string]any{
			"message":          "Furniture deleted successfully",
			"deletedFurniture": existing,
		})
	}
}

// ownedPlaced loads the placed object named by the id URL param and checks
// that it belongs to one of the caller's projects. It writes the error
// response itself and reports false on any failure.
func ownedPlaced(w http.ResponseWriter, r *http.Request, store Store) (*core.PlacedObject, *logrus.Entry, bool) {
	claims, ok := middleware.Claims(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "User claims not found"})
		return nil, nil, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Invalid furniture ID"})
		return nil, nil, false
	}

	log := logrus.WithFields(logrus.Fields{
		"userID":   claims.UserID,
		"placedID": id,
	})
	placed, err := store.GetPlaced(r.Context(), core.ID(id))
	if err != nil {
		writeStoreError(w, r, log, err, "Furniture not found")
		return nil, nil, false
	}
	if _, err := store.GetProject(r.Context(), claims.UserID, placed.ProjectID); err != nil {
		writeStoreError(w, r, log, err, "Furniture not found")
		return nil, nil, false
	}
	return placed, log, true
}

func writeStoreError(w http.ResponseWriter, r *http.Request, log *logrus.Entry, err error, notFound string) {
	if errors.Is(err, core.ErrNotFound) {
		log.WithError(err).Warn(notFound)
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": notFound})
		return
	}
	log.WithError(err).Error("Furniture store failure")
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]string{"error": "Internal server error"})
}
