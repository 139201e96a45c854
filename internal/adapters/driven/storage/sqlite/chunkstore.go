// Package sqlite provides the embedded-database ChunkStore backend.
//
// It is the extension point over the directory-backed store: a single
// database file instead of a file per chunk, with the same append-only,
// owner-isolated contract. Embeddings are stored as little-endian
// float32 blobs.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/myai-labs/retrieval/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/myai-labs/retrieval/internal/core/domain"
	"github.com/myai-labs/retrieval/internal/core/ports/driven"
	"github.com/myai-labs/retrieval/internal/logger"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore persists chunks in a single SQLite database.
type ChunkStore struct {
	db   *sql.DB
	path string
}

// NewChunkStore creates a SQLite chunk store in the specified data
// directory. If dataDir is empty, defaults to ~/.retrieval/data.
func NewChunkStore(dataDir string) (*ChunkStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".retrieval", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "chunks.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &ChunkStore{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *ChunkStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *ChunkStore) Path() string {
	return s.path
}

// Add inserts one chunk record. Inserting an id that already exists in
// the owner's collection is an error: records are never overwritten.
func (s *ChunkStore) Add(ctx context.Context, ownerID string, chunk domain.DocumentChunk) error {
	if chunk.ID == "" {
		return fmt.Errorf("add chunk: %w: empty id", domain.ErrInvalidInput)
	}

	metadataJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunks (owner, id, content, embedding, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ownerID, chunk.ID, chunk.Content,
		float32SliceToBytes(chunk.Embedding),
		string(metadataJSON),
		chunk.Metadata.IngestedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return nil
}

// List returns up to limit chunks belonging to ownerID starting at
// offset, ordered by record id. Rows that fail to decode are skipped.
func (s *ChunkStore) List(ctx context.Context, ownerID string, offset, limit int) ([]domain.DocumentChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, embedding, metadata
		FROM chunks WHERE owner = ?
		ORDER BY id LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk
	for rows.Next() {
		var chunk domain.DocumentChunk
		var embedding []byte
		var metadataJSON string

		if err := rows.Scan(&chunk.ID, &chunk.Content, &embedding, &metadataJSON); err != nil {
			logger.Warn("skipping unreadable row for %s: %v", ownerID, err)
			continue
		}
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			logger.Warn("skipping chunk %s with corrupt metadata: %v", chunk.ID, err)
			continue
		}
		// Defense in depth against misfiled rows.
		if chunk.Metadata.Owner != ownerID {
			logger.Warn("skipping misfiled chunk %s: owner %q", chunk.ID, chunk.Metadata.Owner)
			continue
		}

		chunk.Embedding = bytesToFloat32Slice(embedding)
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return chunks, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// Count returns the number of records in the owner's collection.
func (s *ChunkStore) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE owner = ?", ownerID)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// DeleteCollection removes every record for the owner. Idempotent.
func (s *ChunkStore) DeleteCollection(ctx context.Context, ownerID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE owner = ?", ownerID); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *ChunkStore) migrate(fsys embed.FS) error {
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

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_chunks.up.sql" -> 1)
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
