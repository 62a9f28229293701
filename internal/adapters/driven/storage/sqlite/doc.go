// Package sqlite provides a SQLite-based implementation of the ChunkStore port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Parent and child chunks are
// stored in two tables; child embeddings are persisted as little-endian float32
// blobs so the vector index can be rebuilt without re-embedding.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.roundtable/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
