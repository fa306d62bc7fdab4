// ABOUTME: Store Context owning one document database handle
// ABOUTME: Opens the database from a connection descriptor and releases it exactly once

package store

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/2389/docstore-identity/internal/docdb"
	"github.com/2389/docstore-identity/internal/identity"
)

// Context owns the document database used by one unit of work. A Context is
// meant for a single caller; share it between goroutines only if they
// coordinate among themselves.
type Context struct {
	db     *docdb.DB
	logger *slog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option configures NewContext.
type Option func(*Context)

// WithLogger sets the logger handed to the database and to stores built on
// the context. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContext opens the database named by descriptor using schema. An empty
// descriptor, an unparseable descriptor or a nil schema is a configuration
// error.
func NewContext(descriptor string, schema *docdb.Mapper, opts ...Option) (*Context, error) {
	if strings.TrimSpace(descriptor) == "" {
		return nil, &identity.ConfigurationError{Setting: "connection descriptor", Message: "must not be empty"}
	}
	if _, err := docdb.ParseDescriptor(descriptor); err != nil {
		return nil, &identity.ConfigurationError{Setting: "connection descriptor", Message: err.Error()}
	}
	if schema == nil {
		return nil, &identity.ConfigurationError{Setting: "schema", Message: "must not be nil"}
	}

	c := &Context{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	db, err := docdb.Open(descriptor, schema, docdb.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	c.db = db
	c.logger = c.logger.With("component", "store")
	return c, nil
}

// DB returns the underlying database, or a disposed error after Close.
func (c *Context) DB() (*docdb.DB, error) {
	if c.closed.Load() {
		return nil, &identity.DisposedError{Name: "store.Context"}
	}
	return c.db, nil
}

// Close releases the database. Calls after the first are no-ops.
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.db.Close()
	})
	return c.closeErr
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool { return c.closed.Load() }
