package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Collection identifies one loaded collection file by a stable ID that
// survives the file being renamed or moved, as long as its content (and
// therefore its content hash) doesn't change.
type Collection struct {
	ID          string
	Path        string
	ContentHash string
	CreatedAt   string
	UpdatedAt   string
}

// UpsertCollection resolves path+contentHash to a stable collection ID.
//
// Three cases, checked in order (spec.md §4.7):
//  1. A row already has this path: the file at that path changed, so its
//     hash is updated and its history is still preserved under the same ID
//     (history is keyed by collection ID, not content hash).
//  2. A row already has this content hash: the collection was renamed or
//     moved without changing content, so its path is updated in place and
//     its history is preserved under the same ID.
//  3. Neither matches: a new collection, assigned a fresh ID.
func (s *Store) UpsertCollection(path, contentHash string) (string, error) {
	var id string
	err := s.conn.QueryRow(`SELECT id FROM collections WHERE path = ?`, path).Scan(&id)
	switch {
	case err == nil:
		if _, err := s.conn.Exec(
			`UPDATE collections SET content_hash = ?, updated_at = datetime('now') WHERE id = ?`, contentHash, id,
		); err != nil {
			return "", fmt.Errorf("update collection hash: %w", err)
		}
		return id, nil
	case err != sql.ErrNoRows:
		return "", fmt.Errorf("lookup collection by path: %w", err)
	}

	err = s.conn.QueryRow(`SELECT id FROM collections WHERE content_hash = ?`, contentHash).Scan(&id)
	switch {
	case err == nil:
		if _, err := s.conn.Exec(
			`UPDATE collections SET path = ?, updated_at = datetime('now') WHERE id = ?`, path, id,
		); err != nil {
			return "", fmt.Errorf("update collection path: %w", err)
		}
		return id, nil
	case err != sql.ErrNoRows:
		return "", fmt.Errorf("lookup collection by content hash: %w", err)
	}

	newID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate collection id: %w", err)
	}
	id = newID.String()
	if _, err := s.conn.Exec(
		`INSERT INTO collections (id, path, content_hash) VALUES (?, ?, ?)`, id, path, contentHash,
	); err != nil {
		return "", fmt.Errorf("insert collection: %w", err)
	}
	return id, nil
}

// GetCollection retrieves a collection row by ID, or nil if not found.
func (s *Store) GetCollection(id string) (*Collection, error) {
	c := &Collection{}
	err := s.conn.QueryRow(
		`SELECT id, path, content_hash, created_at, updated_at FROM collections WHERE id = ?`, id,
	).Scan(&c.ID, &c.Path, &c.ContentHash, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", id, err)
	}
	return c, nil
}

// MergeCollections reassigns every exchange and the UI state from src into
// dst, then deletes src. Used when two on-disk paths are discovered to be
// the same logical collection (e.g. a symlink resolved after the fact).
func (s *Store) MergeCollections(dst, src string) error {
	if dst == src {
		return nil
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`UPDATE exchanges SET collection_id = ? WHERE collection_id = ?`, dst, src); err != nil {
		return fmt.Errorf("reassign exchanges: %w", err)
	}
	// The destination's own ui_state row wins; the source's is dropped.
	if _, err := tx.Exec(`DELETE FROM ui_state WHERE collection_id = ?`, src); err != nil {
		return fmt.Errorf("drop source ui_state: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM collections WHERE id = ?`, src); err != nil {
		return fmt.Errorf("delete source collection: %w", err)
	}
	return tx.Commit()
}

// DeleteCollection removes a collection and, via ON DELETE CASCADE, every
// exchange and UI state row that references it.
func (s *Store) DeleteCollection(id string) error {
	if _, err := s.conn.Exec(`DELETE FROM collections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete collection %s: %w", id, err)
	}
	return nil
}
