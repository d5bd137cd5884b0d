package assets

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/sirupsen/logrus"
)

// maxUploadSize bounds asset uploads.
const maxUploadSize = 64 << 20

// TransformAssetPath maps a stored mesh or texture path to its asset key.
// Windows separators become slashes and a leading assets/objects/ folder is
// dropped.
func TransformAssetPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimPrefix(p, "/")
	return strings.TrimPrefix(p, "assets/objects/")
}

func HandleGetAsset(store core.AssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := TransformAssetPath(chi.URLParam(r, "*"))
		if key == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Asset path is required"})
			return
		}
		log := logrus.WithField("key", key)

		rc, info, err := store.Open(r.Context(), key)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Asset not found"})
				return
			}
			log.WithError(err).Warn("Failed to open asset")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid asset path"})
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", info.ContentType)
		if rs, ok := rc.(io.ReadSeeker); ok {
			http.ServeContent(w, r, info.Key, info.ModTime, rs)
			return
		}
		if info.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
		}
		if !info.ModTime.IsZero() {
			w.Header().Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
		}
		if _, err := io.Copy(w, rc); err != nil {
			log.WithError(err).Warn("Asset stream interrupted")
		}
	}
}

// HandlePutAsset stores the request body under the wildcard path.
func HandlePutAsset(store core.AssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := TransformAssetPath(chi.URLParam(r, "*"))
		if key == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Asset path is required"})
			return
		}

		stored, err := store.Put(r.Context(), key, http.MaxBytesReader(w, r.Body, maxUploadSize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				render.Status(r, http.StatusRequestEntityTooLarge)
				render.JSON(w, r, map[string]string{"error": "Asset too large"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error": err,
				"key":   key,
			}).Error("Failed to store asset")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to store asset"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]string{"key": stored})
	}
}
