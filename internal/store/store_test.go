package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertCollectionNew(t *testing.T) {
	s := openTestStore(t)

	id, err := s.UpsertCollection("/home/user/project/slumber.yml", "hash-a")
	if err != nil {
		t.Fatalf("UpsertCollection: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	c, err := s.GetCollection(id)
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if c == nil || c.Path != "/home/user/project/slumber.yml" || c.ContentHash != "hash-a" {
		t.Fatalf("collection = %+v", c)
	}
}

func TestUpsertCollectionSamePathNewHash(t *testing.T) {
	s := openTestStore(t)
	path := "/home/user/project/slumber.yml"

	id1, err := s.UpsertCollection(path, "hash-a")
	if err != nil {
		t.Fatalf("UpsertCollection 1: %v", err)
	}
	id2, err := s.UpsertCollection(path, "hash-b")
	if err != nil {
		t.Fatalf("UpsertCollection 2: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id for edited file at same path, got %q and %q", id1, id2)
	}
}

func TestUpsertCollectionSameHashNewPath(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.UpsertCollection("/old/path/slumber.yml", "hash-a")
	if err != nil {
		t.Fatalf("UpsertCollection 1: %v", err)
	}
	id2, err := s.UpsertCollection("/new/path/slumber.yml", "hash-a")
	if err != nil {
		t.Fatalf("UpsertCollection 2: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id across a rename, got %q and %q", id1, id2)
	}

	c, err := s.GetCollection(id1)
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if c.Path != "/new/path/slumber.yml" {
		t.Fatalf("expected path updated to new location, got %q", c.Path)
	}
}

func TestExchangeInsertAndLatest(t *testing.T) {
	s := openTestStore(t)
	collID, err := s.UpsertCollection("/c.yml", "hash")
	if err != nil {
		t.Fatalf("UpsertCollection: %v", err)
	}

	older := &Exchange{
		CollectionID:   collID,
		RecipeID:       "login",
		Method:         "POST",
		URL:            "https://api.example.com/login",
		RequestHeaders: "[]",
		StartTime:      time.Now().Add(-time.Hour),
	}
	if _, err := s.InsertExchange(older); err != nil {
		t.Fatalf("InsertExchange older: %v", err)
	}

	newer := &Exchange{
		CollectionID:   collID,
		RecipeID:       "login",
		Method:         "POST",
		URL:            "https://api.example.com/login",
		RequestHeaders: "[]",
		StartTime:      time.Now(),
	}
	newerID, err := s.InsertExchange(newer)
	if err != nil {
		t.Fatalf("InsertExchange newer: %v", err)
	}

	latest, err := s.LatestExchange(collID, "login", nil)
	if err != nil {
		t.Fatalf("LatestExchange: %v", err)
	}
	if latest == nil || latest.ID != newerID {
		t.Fatalf("expected latest exchange to be %q, got %+v", newerID, latest)
	}
}

func TestLatestExchangeScopedToProfile(t *testing.T) {
	s := openTestStore(t)
	collID, _ := s.UpsertCollection("/c.yml", "hash")
	profile := "prod"

	if _, err := s.InsertExchange(&Exchange{
		CollectionID: collID, RecipeID: "r", Method: "GET", URL: "https://x",
		RequestHeaders: "[]", StartTime: time.Now(), ProfileID: &profile,
	}); err != nil {
		t.Fatalf("InsertExchange: %v", err)
	}

	none, err := s.LatestExchange(collID, "r", nil)
	if err != nil {
		t.Fatalf("LatestExchange: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no unscoped exchange, got %+v", none)
	}

	found, err := s.LatestExchange(collID, "r", &profile)
	if err != nil {
		t.Fatalf("LatestExchange: %v", err)
	}
	if found == nil {
		t.Fatal("expected exchange scoped to profile")
	}
}

func TestDeleteCollectionCascades(t *testing.T) {
	s := openTestStore(t)
	collID, _ := s.UpsertCollection("/c.yml", "hash")
	if _, err := s.InsertExchange(&Exchange{
		CollectionID: collID, RecipeID: "r", Method: "GET", URL: "https://x",
		RequestHeaders: "[]", StartTime: time.Now(),
	}); err != nil {
		t.Fatalf("InsertExchange: %v", err)
	}

	if err := s.DeleteCollection(collID); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}

	exchanges, err := s.ListExchanges(collID, "r", 10)
	if err != nil {
		t.Fatalf("ListExchanges: %v", err)
	}
	if len(exchanges) != 0 {
		t.Fatalf("expected cascade delete to remove exchanges, got %d", len(exchanges))
	}
}

func TestUIStateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	collID, _ := s.UpsertCollection("/c.yml", "hash")

	st, err := s.GetUIState(collID)
	if err != nil {
		t.Fatalf("GetUIState: %v", err)
	}
	if st.Data != "{}" {
		t.Fatalf("expected default data, got %q", st.Data)
	}

	profile := "dev"
	st.SelectedProfileID = &profile
	st.Data = `{"expanded":["a","b"]}`
	if err := s.SetUIState(st); err != nil {
		t.Fatalf("SetUIState: %v", err)
	}

	got, err := s.GetUIState(collID)
	if err != nil {
		t.Fatalf("GetUIState: %v", err)
	}
	if got.Data != st.Data || got.SelectedProfileID == nil || *got.SelectedProfileID != "dev" {
		t.Fatalf("GetUIState = %+v", got)
	}
}
