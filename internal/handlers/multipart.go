package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/clipstream/backend/internal/media"
)

// multipartMemory caps how much of a multipart body is held in memory before
// net/http spills the remainder to disk on its own.
const multipartMemory = 32 << 20

// spoolFormFile copies the named multipart field into a temporary file and
// returns its path. The second return is false when the field was absent,
// which is only an error if the caller requires it.
func spoolFormFile(r *http.Request, field string) (string, bool, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read form file %s: %w", field, err)
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	path, err := media.SpoolToTemp(file, "clipstream-*"+ext)
	if err != nil {
		return "", false, err
	}

	return path, true, nil
}

// discardSpool removes a spooled file that is still on disk. Upload removes
// the file itself once it takes ownership, so deferring this after a spool
// only matters on paths that return before the handoff.
func discardSpool(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
