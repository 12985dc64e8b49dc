package repositories

import (
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	cursor := encodeCursor(createdAt, "0c2b43de-40ba-4b4f-8f30-83f224eb7c01")

	key, err := decodeCursor(cursor)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	if key.createdAt == nil || !key.createdAt.Equal(createdAt) {
		t.Fatalf("expected createdAt %v got %v", createdAt, key.createdAt)
	}
	if key.id == nil || *key.id != "0c2b43de-40ba-4b4f-8f30-83f224eb7c01" {
		t.Fatalf("unexpected id %v", key.id)
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	key, err := decodeCursor("")
	if err != nil {
		t.Fatalf("empty cursor should decode to the zero key: %v", err)
	}
	if key.createdAt != nil || key.id != nil {
		t.Fatalf("expected zero key, got %+v", key)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, cursor := range []string{"not base64 !!", "bm8tc2VwYXJhdG9y", "fHx8"} {
		_, err := decodeCursor(cursor)
		if err == nil {
			t.Fatalf("expected an error for cursor %q", cursor)
		}
		// Cursors come straight from the client, so the failure has to be
		// classifiable as their input being bad rather than a server fault.
		if !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("expected ErrInvalidCursor for cursor %q, got %v", cursor, err)
		}
	}
}
