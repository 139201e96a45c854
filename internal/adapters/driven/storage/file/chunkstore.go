// Package file provides the directory-backed ChunkStore.
//
// Layout: one directory per owner under the store root, one JSON file
// per chunk inside it. The directory listing is the only catalog; there
// is no secondary index. Records are written atomically (temp file then
// hard link) and never modified afterwards.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/myai-labs/retrieval/internal/core/domain"
	"github.com/myai-labs/retrieval/internal/core/ports/driven"
	"github.com/myai-labs/retrieval/internal/logger"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

const recordExt = ".json"

// ChunkStore persists chunks as JSON files under a root directory.
type ChunkStore struct {
	root string
}

// NewChunkStore creates a file-backed chunk store rooted at dataDir.
// If dataDir is empty, defaults to ~/.retrieval/chunks.
func NewChunkStore(dataDir string) (*ChunkStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".retrieval", "chunks")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &ChunkStore{root: dataDir}, nil
}

// Add persists one chunk in the owner's collection, creating the
// collection directory on first write. The record file is written to a
// temp name and hard-linked into place, so readers never observe a
// partial record and an existing id is rejected rather than replaced.
func (s *ChunkStore) Add(ctx context.Context, ownerID string, chunk domain.DocumentChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if chunk.ID == "" {
		return fmt.Errorf("add chunk: %w: empty id", domain.ErrInvalidInput)
	}

	dir := s.ownerDir(ownerID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating collection directory: %w", err)
	}

	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("marshalling chunk: %w", err)
	}

	final := filepath.Join(dir, chunk.ID+recordExt)
	tmp, err := os.CreateTemp(dir, chunk.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp record: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing record: %w", err)
	}

	// Commit by linking, not renaming: link fails when the record
	// already exists, so a duplicate id can never replace a committed
	// record.
	if err := os.Link(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("add chunk: duplicate id %s", chunk.ID)
		}
		return fmt.Errorf("committing record: %w", err)
	}
	os.Remove(tmp.Name())
	return nil
}

// List returns up to limit chunks starting at offset, in record-id
// order. Corrupt records are skipped with a warning; records tagged
// with another owner are dropped even though they should never be in
// this directory.
func (s *ChunkStore) List(ctx context.Context, ownerID string, offset, limit int) ([]domain.DocumentChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	names, err := s.recordNames(ownerID)
	if err != nil {
		return nil, err
	}
	if offset >= len(names) {
		return nil, nil
	}

	end := offset + limit
	if end > len(names) {
		end = len(names)
	}

	dir := s.ownerDir(ownerID)
	chunks := make([]domain.DocumentChunk, 0, end-offset)
	for _, name := range names[offset:end] {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("skipping unreadable record %s/%s: %v", ownerID, name, err)
			continue
		}

		var chunk domain.DocumentChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			logger.Warn("skipping corrupt record %s/%s: %v", ownerID, name, err)
			continue
		}

		// Defense in depth: the directory already partitions by owner,
		// but a misfiled record must still not cross tenants.
		if chunk.Metadata.Owner != ownerID {
			logger.Warn("skipping misfiled record %s: owner %q", name, chunk.Metadata.Owner)
			continue
		}

		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// Count returns the number of records in the owner's collection.
func (s *ChunkStore) Count(ctx context.Context, ownerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	names, err := s.recordNames(ownerID)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// DeleteCollection removes the owner's directory and every record in
// it. Deleting a collection that never existed is a no-op.
func (s *ChunkStore) DeleteCollection(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(s.ownerDir(ownerID)); err != nil {
		return fmt.Errorf("removing collection: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *ChunkStore) Close() error {
	return nil
}

// recordNames lists the owner's record files in sorted order.
// A missing collection directory yields an empty list.
func (s *ChunkStore) recordNames(ownerID string) ([]string, error) {
	entries, err := os.ReadDir(s.ownerDir(ownerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading collection directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ownerDir maps an owner id to its collection directory. The id is
// path-escaped and prefixed so arbitrary owner strings (including "..")
// cannot traverse outside the store root.
func (s *ChunkStore) ownerDir(ownerID string) string {
	return filepath.Join(s.root, "owner-"+url.PathEscape(ownerID))
}
