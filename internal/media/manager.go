// Package media tracks external-storage references for uploaded assets and
// mediates every upload and delete against the object store.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// Manager issues uploads and best-effort deletes against the object store.
type Manager struct {
	store ObjectStore
}

// NewManager constructs a Manager over the provided store.
func NewManager(store ObjectStore) *Manager {
	if store == nil {
		panic("media: object store must not be nil")
	}
	return &Manager{store: store}
}

// Upload pushes the local temporary file to the external store under a fresh
// key inside folder. On any failure it returns the zero reference rather than
// an error; the caller decides whether that is fatal for its own operation.
// The local file is removed on every path, success or failure.
func (m *Manager) Upload(ctx context.Context, localPath, folder string) models.MediaReference {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			logging.FromContext(ctx).Warn("remove temp upload", "path", localPath, "error", err)
		}
	}()

	logger := logging.FromContext(ctx)

	f, err := os.Open(localPath)
	if err != nil {
		logger.Error("open upload file", "path", localPath, "error", err)
		return models.MediaReference{}
	}
	defer f.Close()

	ext := filepath.Ext(localPath)
	key := path.Join(folder, uuid.NewString()+ext)
	contentType := mime.TypeByExtension(ext)

	url, err := m.store.Put(ctx, key, contentType, f)
	if err != nil {
		logger.Error("upload to media store", "key", key, "error", err)
		return models.MediaReference{}
	}

	return models.MediaReference{URL: url, Key: key}
}

// Remove deletes the remote asset behind ref. Failures are logged and
// swallowed: an orphaned remote asset is preferable to blocking the primary
// mutation that triggered the delete.
func (m *Manager) Remove(ctx context.Context, ref models.MediaReference, kind string) {
	if ref.Key == "" {
		return
	}
	if err := m.store.Remove(ctx, ref.Key); err != nil {
		logging.FromContext(ctx).Warn("delete remote asset",
			"kind", kind, "key", ref.Key, "error", err)
	}
}

// RemoveAll issues one Remove per reference. Each delete is independent; one
// failing never prevents the others from executing.
func (m *Manager) RemoveAll(ctx context.Context, kind string, refs ...models.MediaReference) {
	for _, ref := range refs {
		m.Remove(ctx, ref, kind)
	}
}

// SpoolToTemp drains src into a fresh temporary file and returns its path.
// Callers hand the path to Upload, which owns the cleanup.
func SpoolToTemp(src io.Reader, pattern string) (string, error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return tmp.Name(), nil
}
