package repositories

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Keyset cursors encode the (created_at, id) pair of the last row on a page.
// They are opaque to clients and survive inserts without skipping rows, which
// offset pagination does not.

type cursorKey struct {
	createdAt *time.Time
	id        *string
}

func encodeCursor(createdAt time.Time, id string) string {
	raw := fmt.Sprintf("%s|%s", createdAt.UTC().Format(time.RFC3339Nano), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (cursorKey, error) {
	if cursor == "" {
		return cursorKey{}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return cursorKey{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return cursorKey{}, fmt.Errorf("%w: malformed payload", ErrInvalidCursor)
	}

	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return cursorKey{}, fmt.Errorf("%w: bad timestamp: %v", ErrInvalidCursor, err)
	}

	id := parts[1]
	return cursorKey{createdAt: &ts, id: &id}, nil
}
