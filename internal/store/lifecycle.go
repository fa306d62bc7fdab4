// ABOUTME: Entry checks and helpers shared by RoleStore and UserStore
// ABOUTME: Cancellation, disposal, identifier parsing and stamp generation

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/2389/docstore-identity/internal/docdb"
	"github.com/2389/docstore-identity/internal/identity"
)

// lifecycle is embedded by each store.
type lifecycle struct {
	name   string
	sc     *Context
	db     *docdb.DB
	logger *slog.Logger
	closed atomic.Bool

	// checkStamps makes Update compare concurrency stamps before writing.
	checkStamps bool
}

func newLifecycle(name string, sc *Context) (*lifecycle, error) {
	if sc == nil {
		return nil, &identity.ConfigurationError{Setting: "context", Message: "must not be nil"}
	}
	db, err := sc.DB()
	if err != nil {
		return nil, err
	}
	return &lifecycle{
		name:   name,
		sc:     sc,
		db:     db,
		logger: sc.logger.With("store", name),
	}, nil
}

// enter runs the checks every operation starts with. Argument validation
// comes after it.
func (l *lifecycle) enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() || l.sc.Closed() {
		return l.disposed()
	}
	return nil
}

func (l *lifecycle) disposed() error {
	return &identity.DisposedError{Name: l.name}
}

// fail wraps an engine error. A database closed underneath the store is
// reported as disposal.
func (l *lifecycle) fail(action string, err error) error {
	if errors.Is(err, docdb.ErrClosed) {
		return l.disposed()
	}
	return fmt.Errorf("%s: %w", action, err)
}

// Close marks the store closed. It does not close the Context.
func (l *lifecycle) Close() error {
	l.closed.Store(true)
	return nil
}

// collection opens the collection for T. Called at construction so tables
// exist before any transaction needs them.
func collection[T any](ctx context.Context, db *docdb.DB) (*docdb.Collection[T], error) {
	c, err := docdb.GetCollection[T](ctx, db)
	if err != nil {
		return nil, fmt.Errorf("opening collection: %w", err)
	}
	return c, nil
}

// parseID converts a hex identifier. Malformed identifiers cannot match any
// document, so they are reported as not ok rather than as an error.
func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// formatID returns the hex form of id, or "" for an unassigned identifier.
func formatID(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}

func newStamp() string {
	return uuid.NewString()
}

// idSet collects identifiers for the second phase of a reverse lookup.
type idSet map[primitive.ObjectID]struct{}

func (s idSet) add(id primitive.ObjectID) { s[id] = struct{}{} }

func (s idSet) has(id primitive.ObjectID) bool {
	_, ok := s[id]
	return ok
}

// updateStamped replaces the stored copy of doc and rotates its concurrency
// stamp. A document that is not stored is left alone and reported as not
// found. With check set, the write is refused with
// identity.ErrConcurrencyFailure when the stored stamp differs from doc's.
// doc keeps its old stamp unless the write happened.
func updateStamped[T any](ctx context.Context, db *docdb.DB, coll *docdb.Collection[T], id primitive.ObjectID, doc *T, stamp func(*T) *string, check bool) (bool, error) {
	if id.IsZero() {
		return false, nil
	}

	previous := *stamp(doc)
	found := false
	err := db.Tx(ctx, func(tx *docdb.Tx) error {
		c := coll.In(tx)
		if check {
			stored, err := c.FindByID(ctx, id)
			if errors.Is(err, docdb.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if *stamp(stored) != previous {
				return identity.ErrConcurrencyFailure
			}
		}

		*stamp(doc) = newStamp()
		var err error
		found, err = c.Update(ctx, doc)
		return err
	})
	if err != nil || !found {
		*stamp(doc) = previous
	}
	return found, err
}
