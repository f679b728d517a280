package store

import (
	"database/sql"
	"fmt"
)

// UIState is opaque, per-collection UI state (selected profile, expanded
// recipe tree nodes, etc.). The Data payload is a caller-defined JSON blob;
// this package never interprets it.
type UIState struct {
	CollectionID      string
	SelectedProfileID *string
	Data              string // JSON
}

// GetUIState returns the stored UI state for a collection, or a zero-value
// state with Data "{}" if none has been saved yet.
func (s *Store) GetUIState(collectionID string) (*UIState, error) {
	st := &UIState{CollectionID: collectionID}
	err := s.conn.QueryRow(
		`SELECT selected_profile_id, data FROM ui_state WHERE collection_id = ?`, collectionID,
	).Scan(&st.SelectedProfileID, &st.Data)
	if err == sql.ErrNoRows {
		st.Data = "{}"
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ui state %s: %w", collectionID, err)
	}
	return st, nil
}

// SetUIState upserts the UI state for a collection.
func (s *Store) SetUIState(st *UIState) error {
	_, err := s.conn.Exec(
		`INSERT INTO ui_state (collection_id, selected_profile_id, data, updated_at)
		 VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT(collection_id) DO UPDATE SET
		   selected_profile_id = excluded.selected_profile_id,
		   data = excluded.data,
		   updated_at = datetime('now')`,
		st.CollectionID, st.SelectedProfileID, st.Data,
	)
	if err != nil {
		return fmt.Errorf("set ui state %s: %w", st.CollectionID, err)
	}
	return nil
}
