// Package docdb is a small embedded document engine built on SQLite.
//
// # Architecture
//
// A DB owns one SQLite database. Every collection is a table holding BSON
// documents keyed by a 12-byte primitive.ObjectID:
//
//	CREATE TABLE "<collection>" (id TEXT PRIMARY KEY, doc BLOB NOT NULL);
//
// Documents are encoded with the codec registry carried by a Mapper. The
// Mapper is the schema registry: it is built once, is immutable afterwards,
// and tells the engine which collection each Go type lives in and which field
// holds its identifier.
//
// # Connection Descriptors
//
// Open accepts a bare path, the in-memory marker, or a key=value list:
//
//	identity.db
//	:memory:
//	Filename=/var/lib/identity/identity.db; Driver=sqlite; BusyTimeout=5s
//
// Driver "sqlite" (default) is modernc.org/sqlite, pure Go. Driver "sqlite3"
// is github.com/mattn/go-sqlite3 and needs cgo.
//
// # Queries
//
// Collections are typed with generics. Lookups other than by identifier take
// a Go predicate over the decoded document and scan the collection in
// identifier order, which is also insertion order.
//
// # Concurrency
//
// The SQLite pool holds a single connection, so all work through one DB is
// serialized. Tx runs a function inside one SQLite transaction; collections
// bound with In(tx) take part in it. Code running inside Tx must only use
// transaction-bound collections, since the unbound ones wait for the
// connection the transaction holds.
package docdb
