package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/roundtable-labs/roundtable-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driven"
)

// Store is a SQLite-backed chunk store.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.ChunkStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.roundtable/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".roundtable", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveParents stores or updates parent chunks.
func (s *Store) SaveParents(ctx context.Context, parents []domain.ParentChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO parents (id, speaker, source_file, timestamp, preceding_question, content, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			speaker = excluded.speaker,
			source_file = excluded.source_file,
			timestamp = excluded.timestamp,
			preceding_question = excluded.preceding_question,
			content = excluded.content,
			position = excluded.position
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range parents {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Speaker, p.SourceFile,
			p.Timestamp, p.PrecedingQuestion, p.Text, p.Position); err != nil {
			return fmt.Errorf("saving parent: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveChildren stores or updates child chunks, embeddings included.
func (s *Store) SaveChildren(ctx context.Context, children []domain.ChildChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO children (id, parent_id, speaker, content, position, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id,
			speaker = excluded.speaker,
			content = excluded.content,
			position = excluded.position,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range children {
		embeddingBlob := float32SliceToBytes(c.Embedding)

		if _, err := stmt.ExecContext(ctx, c.ID, c.ParentID, c.Speaker,
			c.Text, c.Position, embeddingBlob); err != nil {
			return fmt.Errorf("saving child: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetParent retrieves a parent chunk by ID.
func (s *Store) GetParent(ctx context.Context, id string) (*domain.ParentChunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, speaker, source_file, timestamp, preceding_question, content, position
		FROM parents WHERE id = ?
	`, id)

	var p domain.ParentChunk
	if err := row.Scan(&p.ID, &p.Speaker, &p.SourceFile, &p.Timestamp,
		&p.PrecedingQuestion, &p.Text, &p.Position); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: parent %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("scanning parent: %w", err)
	}
	return &p, nil
}

// ListChildren returns all stored child chunks, embeddings included.
func (s *Store) ListChildren(ctx context.Context) ([]domain.ChildChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, speaker, content, position, embedding
		FROM children
		ORDER BY parent_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying children: %w", err)
	}
	defer rows.Close()

	var children []domain.ChildChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.ChildChunk
		var embeddingBlob []byte
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Speaker,
			&c.Text, &c.Position, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning child: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(embeddingBlob)
		children = append(children, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating children: %w", err)
	}

	return children, nil
}

// ListSpeakers returns the distinct speaker names in the corpus.
func (s *Store) ListSpeakers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT speaker FROM parents ORDER BY speaker
	`)
	if err != nil {
		return nil, fmt.Errorf("querying speakers: %w", err)
	}
	defer rows.Close()

	var speakers []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning speaker: %w", err)
		}
		speakers = append(speakers, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating speakers: %w", err)
	}

	return speakers, nil
}

// DeleteBySourceFile removes all parents from the named source file and
// their children, returning the deleted child IDs.
func (s *Store) DeleteBySourceFile(ctx context.Context, sourceFile string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx, `
		SELECT c.id FROM children c
		JOIN parents p ON p.id = c.parent_id
		WHERE p.source_file = ?
	`, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("querying children for %s: %w", sourceFile, err)
	}

	var childIDs []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning child id: %w", err)
		}
		childIDs = append(childIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating child ids: %w", err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM children
		WHERE parent_id IN (SELECT id FROM parents WHERE source_file = ?)
	`, sourceFile); err != nil {
		return nil, fmt.Errorf("deleting children for %s: %w", sourceFile, err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM parents WHERE source_file = ?
	`, sourceFile); err != nil {
		return nil, fmt.Errorf("deleting parents for %s: %w", sourceFile, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return childIDs, nil
}

// Stats summarises the stored corpus.
func (s *Store) Stats(ctx context.Context) (domain.IndexStats, error) {
	var stats domain.IndexStats

	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM parents),
			(SELECT COUNT(*) FROM children),
			(SELECT COUNT(DISTINCT speaker) FROM parents)
	`)
	if err := row.Scan(&stats.Parents, &stats.Children, &stats.Speakers); err != nil {
		return domain.IndexStats{}, fmt.Errorf("scanning stats: %w", err)
	}

	return stats, nil
}

// Clear removes all stored chunks.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM children"); err != nil {
		return fmt.Errorf("clearing children: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM parents"); err != nil {
		return fmt.Errorf("clearing parents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
