package docdb

import "errors"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrClosed is returned when the database has been closed.
	ErrClosed = errors.New("database is closed")

	// ErrEmptyDescriptor is returned by Open for an empty connection descriptor.
	ErrEmptyDescriptor = errors.New("connection descriptor is empty")

	// ErrNoMapper is returned by Open when no mapper is supplied.
	ErrNoMapper = errors.New("mapper is required")

	// ErrUnmappedType is returned for a Go type the mapper does not know.
	ErrUnmappedType = errors.New("type is not mapped")

	// ErrMissingID is returned when a document has a zero identifier and the
	// mapping does not generate one.
	ErrMissingID = errors.New("document has no identifier")

	// ErrDuplicateID is returned when inserting an identifier that already exists.
	ErrDuplicateID = errors.New("duplicate document identifier")
)
