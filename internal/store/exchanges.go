package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Exchange is one persisted request/response pair (spec.md §3 Exchange).
// Headers are stored as JSON-serialized string arrays by the caller
// (internal/render owns the encoding); this package treats them as opaque
// text so it has no dependency on the template/value packages.
type Exchange struct {
	ID               string
	CollectionID     string
	RecipeID         string
	ProfileID        *string
	Method           string
	URL              string
	RequestHeaders   string // JSON
	RequestBody      []byte
	StatusCode       *int
	ResponseHeaders  *string // JSON, nil if the request never got a response
	ResponseBody     []byte
	Error            *string
	StartTime        time.Time
	EndTime          *time.Time
}

const exchangeColumns = `id, collection_id, recipe_id, profile_id, method, url, request_headers, request_body, status_code, response_headers, response_body, error, start_time, end_time`

func scanExchange(scanner interface{ Scan(...any) error }, e *Exchange) error {
	var start, end sql.NullString
	if err := scanner.Scan(
		&e.ID, &e.CollectionID, &e.RecipeID, &e.ProfileID, &e.Method, &e.URL,
		&e.RequestHeaders, &e.RequestBody, &e.StatusCode, &e.ResponseHeaders, &e.ResponseBody,
		&e.Error, &start, &end,
	); err != nil {
		return err
	}
	if start.Valid {
		t, err := time.Parse(time.RFC3339Nano, start.String)
		if err != nil {
			return fmt.Errorf("parse start_time: %w", err)
		}
		e.StartTime = t
	}
	if end.Valid {
		t, err := time.Parse(time.RFC3339Nano, end.String)
		if err != nil {
			return fmt.Errorf("parse end_time: %w", err)
		}
		e.EndTime = &t
	}
	return nil
}

// InsertExchange persists a completed (or failed) exchange and assigns it a
// time-ordered UUIDv7 ID, so ORDER BY id and ORDER BY start_time agree.
func (s *Store) InsertExchange(e *Exchange) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate exchange id: %w", err)
	}
	e.ID = id.String()

	var endTime any
	if e.EndTime != nil {
		endTime = e.EndTime.Format(time.RFC3339Nano)
	}

	_, err = s.conn.Exec(
		`INSERT INTO exchanges (id, collection_id, recipe_id, profile_id, method, url, request_headers, request_body, status_code, response_headers, response_body, error, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CollectionID, e.RecipeID, e.ProfileID, e.Method, e.URL, e.RequestHeaders, e.RequestBody,
		e.StatusCode, e.ResponseHeaders, e.ResponseBody, e.Error, e.StartTime.Format(time.RFC3339Nano), endTime,
	)
	if err != nil {
		return "", fmt.Errorf("insert exchange: %w", err)
	}
	return e.ID, nil
}

// LatestExchange returns the most recent exchange for a recipe within a
// collection, optionally scoped to a profile. profileID == nil matches
// exchanges recorded with no profile selected, not "any profile" — chain
// triggers must not leak history across profiles.
func (s *Store) LatestExchange(collectionID, recipeID string, profileID *string) (*Exchange, error) {
	var row *sql.Row
	if profileID == nil {
		row = s.conn.QueryRow(
			`SELECT `+exchangeColumns+` FROM exchanges
			 WHERE collection_id = ? AND recipe_id = ? AND profile_id IS NULL
			 ORDER BY start_time DESC LIMIT 1`, collectionID, recipeID)
	} else {
		row = s.conn.QueryRow(
			`SELECT `+exchangeColumns+` FROM exchanges
			 WHERE collection_id = ? AND recipe_id = ? AND profile_id = ?
			 ORDER BY start_time DESC LIMIT 1`, collectionID, recipeID, *profileID)
	}
	e := &Exchange{}
	if err := scanExchange(row, e); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("latest exchange: %w", err)
	}
	return e, nil
}

// ListExchanges returns exchanges for a recipe ordered newest-first.
func (s *Store) ListExchanges(collectionID, recipeID string, limit int) ([]Exchange, error) {
	rows, err := s.conn.Query(
		`SELECT `+exchangeColumns+` FROM exchanges
		 WHERE collection_id = ? AND recipe_id = ?
		 ORDER BY start_time DESC LIMIT ?`, collectionID, recipeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Exchange
	for rows.Next() {
		var e Exchange
		if err := scanExchange(rows, &e); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetExchange retrieves a single exchange by ID.
func (s *Store) GetExchange(id string) (*Exchange, error) {
	e := &Exchange{}
	row := s.conn.QueryRow(`SELECT `+exchangeColumns+` FROM exchanges WHERE id = ?`, id)
	if err := scanExchange(row, e); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get exchange %s: %w", id, err)
	}
	return e, nil
}
