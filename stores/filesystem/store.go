package filesystem

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/sirupsen/logrus"
)

type fsStore struct {
	basePath string
}

// NewStore creates an asset store rooted at basePath.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

// CleanKey normalizes an asset key to a relative slash path. Keys that
// escape the root are rejected.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, `\`, "/")
	cleaned := path.Clean("/" + key)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid asset key %q", key)
	}
	return cleaned, nil
}

// ContentType guesses a MIME type from the key's extension.
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".obj":
		return "model/obj"
	case ".mtl":
		return "model/mtl"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	}
	return "application/octet-stream"
}

func (s *fsStore) resolve(key string) (string, string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", "", err
	}
	absFile := filepath.Join(absBase, filepath.FromSlash(cleaned))
	if !strings.HasPrefix(absFile, absBase+string(filepath.Separator)) {
		return "", "", fmt.Errorf("invalid path: access denied")
	}
	return cleaned, absFile, nil
}

func (s *fsStore) Open(ctx context.Context, key string) (io.ReadCloser, *core.AssetInfo, error) {
	cleaned, filePath, err := s.resolve(key)
	if err != nil {
		return nil, nil, err
	}
	log := logrus.WithFields(logrus.Fields{"key": cleaned, "path": filePath})

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Asset not found")
			return nil, nil, fmt.Errorf("asset %s: %w", cleaned, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to open asset")
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("asset %s: %w", cleaned, core.ErrNotFound)
	}

	log.Debug("Asset opened")
	return f, &core.AssetInfo{
		Key:         cleaned,
		ContentType: ContentType(cleaned),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

// Put writes r under key. An empty key gets a generated name.
func (s *fsStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if key == "" {
		key = ulid.Make().String()
	}
	cleaned, filePath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{"key": cleaned, "path": filePath})

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		log.WithError(err).Error("Failed to create asset directory")
		return "", err
	}
	f, err := os.Create(filePath)
	if err != nil {
		log.WithError(err).Error("Failed to create asset file")
		return "", err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.WithError(err).Error("Failed to write asset")
		return "", err
	}

	log.WithField("size", n).Info("Asset stored")
	return cleaned, nil
}
