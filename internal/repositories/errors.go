package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrForbidden indicates the record exists but belongs to another user.
	// Kept distinct from ErrNotFound so ownership failures surface as 403, not 404.
	ErrForbidden = errors.New("record owned by another user")
	// ErrInvalidCursor indicates a client-supplied pagination cursor that does
	// not decode. It is the client's input, so it maps to 400, not 500.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)
