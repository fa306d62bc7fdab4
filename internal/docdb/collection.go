// ABOUTME: Typed collection of BSON documents
// ABOUTME: Insert, update, delete and predicate queries against one collection table

package docdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is a typed view of one collection. The zero value is not usable;
// obtain one with GetCollection.
type Collection[T any] struct {
	db      *DB
	q       querier
	mapping *EntityMapping
}

// GetCollection returns the collection T is mapped to, creating its table if
// needed. It must not be called from inside Tx.
func GetCollection[T any](ctx context.Context, db *DB) (*Collection[T], error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}

	t := reflect.TypeFor[T]()
	mapping, ok := db.mapper.Mapping(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnmappedType, t)
	}

	if err := db.ensureCollection(ctx, mapping.collection); err != nil {
		return nil, err
	}

	return &Collection[T]{db: db, q: db.sql, mapping: mapping}, nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.mapping.collection }

// In returns a copy of the collection bound to tx.
func (c *Collection[T]) In(tx *Tx) *Collection[T] {
	bound := *c
	bound.q = tx.tx
	return &bound
}

// Insert stores a new document. A zero identifier is replaced with a fresh
// ObjectID when the mapping allows it; the identifier is written back into doc.
func (c *Collection[T]) Insert(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	if err := c.db.checkOpen(); err != nil {
		return primitive.NilObjectID, err
	}

	id := c.mapping.id(doc)
	generated := false
	if id.IsZero() {
		if !c.mapping.autoID {
			return primitive.NilObjectID, ErrMissingID
		}
		id = primitive.NewObjectID()
		c.mapping.setID(doc, id)
		generated = true
	}

	data, err := c.db.mapper.encode(doc)
	if err != nil {
		if generated {
			c.mapping.setID(doc, primitive.NilObjectID)
		}
		return primitive.NilObjectID, fmt.Errorf("encoding %s document: %w", c.Name(), err)
	}

	query := fmt.Sprintf(`INSERT INTO %q (id, doc) VALUES (?, ?)`, c.Name())
	if _, err := c.q.ExecContext(ctx, query, id.Hex(), data); err != nil {
		if generated {
			c.mapping.setID(doc, primitive.NilObjectID)
		}
		if isConstraintViolation(err) {
			return primitive.NilObjectID, fmt.Errorf("%w: %s %s", ErrDuplicateID, c.Name(), id.Hex())
		}
		return primitive.NilObjectID, fmt.Errorf("inserting into %s: %w", c.Name(), err)
	}

	c.db.logger.Debug("inserted document", "collection", c.Name(), "id", id.Hex())
	return id, nil
}

// Update replaces the stored document with doc. It reports whether a
// document with doc's identifier existed.
func (c *Collection[T]) Update(ctx context.Context, doc *T) (bool, error) {
	if err := c.db.checkOpen(); err != nil {
		return false, err
	}

	id := c.mapping.id(doc)
	if id.IsZero() {
		return false, ErrMissingID
	}

	data, err := c.db.mapper.encode(doc)
	if err != nil {
		return false, fmt.Errorf("encoding %s document: %w", c.Name(), err)
	}

	query := fmt.Sprintf(`UPDATE %q SET doc = ? WHERE id = ?`, c.Name())
	result, err := c.q.ExecContext(ctx, query, data, id.Hex())
	if err != nil {
		return false, fmt.Errorf("updating %s: %w", c.Name(), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	c.db.logger.Debug("updated document", "collection", c.Name(), "id", id.Hex(), "found", rows > 0)
	return rows > 0, nil
}

// Delete removes the document with the given identifier. It reports whether
// a document was removed.
func (c *Collection[T]) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if err := c.db.checkOpen(); err != nil {
		return false, err
	}

	query := fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, c.Name())
	result, err := c.q.ExecContext(ctx, query, id.Hex())
	if err != nil {
		return false, fmt.Errorf("deleting from %s: %w", c.Name(), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	c.db.logger.Debug("deleted document", "collection", c.Name(), "id", id.Hex(), "found", rows > 0)
	return rows > 0, nil
}

// DeleteMany removes every document matching pred and returns how many were
// removed.
func (c *Collection[T]) DeleteMany(ctx context.Context, pred func(*T) bool) (int, error) {
	matches, err := c.Find(ctx, pred)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, doc := range matches {
		ok, err := c.Delete(ctx, c.mapping.id(doc))
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

// FindByID returns the document with the given identifier, or ErrNotFound.
func (c *Collection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	if err := c.db.checkOpen(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT doc FROM %q WHERE id = ?`, c.Name())

	var data []byte
	err := c.q.QueryRowContext(ctx, query, id.Hex()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s by id: %w", c.Name(), err)
	}

	doc := new(T)
	if err := c.db.mapper.decode(data, doc); err != nil {
		return nil, fmt.Errorf("decoding %s document %s: %w", c.Name(), id.Hex(), err)
	}
	return doc, nil
}

// FindOne returns the first document, in identifier order, matching pred, or
// ErrNotFound.
func (c *Collection[T]) FindOne(ctx context.Context, pred func(*T) bool) (*T, error) {
	var found *T
	err := c.scan(ctx, func(doc *T) bool {
		if pred == nil || pred(doc) {
			found = doc
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// Find returns every document matching pred in identifier order. A nil pred
// matches everything. The result is never nil.
func (c *Collection[T]) Find(ctx context.Context, pred func(*T) bool) ([]*T, error) {
	docs := []*T{}
	err := c.scan(ctx, func(doc *T) bool {
		if pred == nil || pred(doc) {
			docs = append(docs, doc)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// FindAll returns every document in identifier order.
func (c *Collection[T]) FindAll(ctx context.Context) ([]*T, error) {
	return c.Find(ctx, nil)
}

// Count returns the number of documents matching pred.
func (c *Collection[T]) Count(ctx context.Context, pred func(*T) bool) (int, error) {
	n := 0
	err := c.scan(ctx, func(doc *T) bool {
		if pred == nil || pred(doc) {
			n++
		}
		return true
	})
	return n, err
}

// scan decodes documents in identifier order until fn returns false. The
// rows are closed before scan returns, so fn must not issue queries.
func (c *Collection[T]) scan(ctx context.Context, fn func(*T) bool) error {
	if err := c.db.checkOpen(); err != nil {
		return err
	}

	query := fmt.Sprintf(`SELECT id, doc FROM %q ORDER BY id`, c.Name())
	rows, err := c.q.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying %s: %w", c.Name(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("scanning %s row: %w", c.Name(), err)
		}

		doc := new(T)
		if err := c.db.mapper.decode(data, doc); err != nil {
			return fmt.Errorf("decoding %s document %s: %w", c.Name(), id, err)
		}
		if !fn(doc) {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s rows: %w", c.Name(), err)
	}
	return nil
}

// isConstraintViolation checks if the error is a SQLite constraint violation.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}
