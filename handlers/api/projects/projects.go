package projects

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/middleware"
	"github.com/sirupsen/logrus"
)

// Store is what the project handlers need from the backend.
type Store interface {
	core.ProjectStore
	core.PlacementStore
}

type createRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	RoomLayoutID core.ID `json:"room_layout_id"`
}

func parseID(r *http.Request) (core.ID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return core.NoID, false
	}
	return core.ID(id), true
}

func HandleListProjects(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.Claims(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		projects, err := store.ListProjects(r.Context(), claims.UserID)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.UserID,
			}).Error("Failed to list projects")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list projects"})
			return
		}
		if projects == nil {
			projects = []*core.Project{}
		}
		render.JSON(w, r, projects)
	}
}

func HandleGetProject(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.Claims(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}
		id, ok := parseID(r)
		if !ok {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid project ID"})
			return
		}

		project, err := store.GetProject(r.Context(), claims.UserID, id)
		if err != nil {
			writeLookupError(w, r, err, "Project not found")
			return
		}
		render.JSON(w, r, project)
	}
}

func HandleCreateProject(store Store) http.HandlerFunc {
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
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.RoomLayoutID == core.NoID {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Project name and room layout are required"})
			return
		}

		project := &core.Project{
			UserID:       claims.UserID,
			Name:         req.Name,
			Description:  req.Description,
			RoomLayoutID: req.RoomLayoutID,
		}
		if err := store.CreateProject(r.Context(), project); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, map[string]string{"error": "Room layout not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.UserID,
			}).Error("Failed to create project")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create project"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, project)
	}
}

// HandleListPlaced lists the furniture placed in one of the caller's projects.
func HandleListPlaced(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.Claims(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}
		id, ok := parseID(r)
		if !ok {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid project ID"})
			return
		}

		if _, err := store.GetProject(r.Context(), claims.UserID, id); err != nil {
			writeLookupError(w, r, err, "Project not found")
			return
		}
		placed, err := store.ListPlaced(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":     err,
				"projectID": id,
			}).Error("Failed to list placed furniture")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list placed furniture"})
			return
		}
		if placed == nil {
			placed = []*core.PlacedObject{}
		}
		render.JSON(w, r, placed)
	}
}

func writeLookupError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, core.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": notFound})
		return
	}
	logrus.WithError(err).Error("Failed to load project")
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]string{"error": "Failed to load project"})
}
