package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clipstream/backend/internal/models"
)

type fakeObjectStore struct {
	putErr    error
	putKeys   []string
	putBodies []string
	removed   []string
	removeErr map[string]error
}

func (s *fakeObjectStore) Put(_ context.Context, key, _ string, r io.Reader) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.putKeys = append(s.putKeys, key)
	s.putBodies = append(s.putBodies, string(body))
	return "https://media.test/" + key, nil
}

func (s *fakeObjectStore) Remove(_ context.Context, key string) error {
	s.removed = append(s.removed, key)
	if err, ok := s.removeErr[key]; ok {
		return err
	}
	return nil
}

func writeTempUpload(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp upload: %v", err)
	}
	return path
}

func TestManagerUpload(t *testing.T) {
	store := &fakeObjectStore{}
	manager := NewManager(store)

	local := writeTempUpload(t, "clip.mp4", "video-bytes")
	ref := manager.Upload(context.Background(), local, "videos")

	if ref.IsZero() {
		t.Fatal("expected a populated reference on success")
	}
	if !strings.HasPrefix(ref.Key, "videos/") || !strings.HasSuffix(ref.Key, ".mp4") {
		t.Fatalf("key should live under the folder and keep the extension, got %q", ref.Key)
	}
	if ref.URL != "https://media.test/"+ref.Key {
		t.Fatalf("unexpected url %q", ref.URL)
	}
	if len(store.putBodies) != 1 || store.putBodies[0] != "video-bytes" {
		t.Fatalf("store did not receive the file contents: %+v", store.putBodies)
	}

	if _, err := os.Stat(local); !os.IsNotExist(err) {
		t.Fatal("temp file must be removed after a successful upload")
	}
}

func TestManagerUploadFailureReturnsZeroReference(t *testing.T) {
	store := &fakeObjectStore{putErr: errors.New("bucket unavailable")}
	manager := NewManager(store)

	local := writeTempUpload(t, "thumb.png", "png-bytes")
	ref := manager.Upload(context.Background(), local, "thumbnails")

	if !ref.IsZero() {
		t.Fatalf("expected the zero reference on failure, got %+v", ref)
	}
	if _, err := os.Stat(local); !os.IsNotExist(err) {
		t.Fatal("temp file must be removed even when the upload fails")
	}
}

func TestManagerRemoveSkipsEmptyKey(t *testing.T) {
	store := &fakeObjectStore{}
	manager := NewManager(store)

	manager.Remove(context.Background(), models.MediaReference{}, "thumbnail")

	if len(store.removed) != 0 {
		t.Fatalf("empty reference should not reach the store, got %v", store.removed)
	}
}

func TestManagerRemoveAllContinuesPastFailures(t *testing.T) {
	store := &fakeObjectStore{removeErr: map[string]error{
		"videos/a.mp4": errors.New("transient"),
	}}
	manager := NewManager(store)

	manager.RemoveAll(context.Background(), "video",
		models.MediaReference{URL: "https://media.test/videos/a.mp4", Key: "videos/a.mp4"},
		models.MediaReference{URL: "https://media.test/thumbnails/a.png", Key: "thumbnails/a.png"},
	)

	if len(store.removed) != 2 {
		t.Fatalf("expected both deletes to be attempted, got %v", store.removed)
	}
}

func TestSpoolToTemp(t *testing.T) {
	path, err := SpoolToTemp(strings.NewReader("spooled"), "media-test-*.bin")
	if err != nil {
		t.Fatalf("spool to temp: %v", err)
	}
	defer os.Remove(path)

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read spooled file: %v", err)
	}
	if string(contents) != "spooled" {
		t.Fatalf("unexpected contents %q", contents)
	}
}
