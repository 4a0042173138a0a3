package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hpungsan/glimpse/internal/errors"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

func newRecord(path string, capturedAt int64) *screenshot.Record {
	return &screenshot.Record{
		StoragePath: path,
		CapturedAt:  capturedAt,
		CreatedAt:   time.Now().Unix(),
	}
}

func TestInit_CreatesSchema(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestInit_Reopen(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := Insert(database, newRecord("/tmp/a.png", 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	database.Close()

	// Re-init on the same directory must not lose data.
	database, err = Init(tmpDir)
	if err != nil {
		t.Fatalf("re-Init failed: %v", err)
	}
	defer database.Close()

	records, err := ListAll(database)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records after reopen, want 1", len(records))
	}
}

func TestInsertAssignsMonotonicIDs(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	var prev int64
	for i := 0; i < 3; i++ {
		id, err := Insert(database, newRecord(filepath.Join("/tmp", "shot.png"), int64(i)))
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if id <= prev {
			t.Errorf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestGetByID_NotFound(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	_, err = GetByID(database, 999)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByID unknown id: got %v, want NOT_FOUND", err)
	}
}

func TestGetByFileHash(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	r := newRecord("/tmp/a.png", 100)
	r.FileHash = "abc123"
	if _, err := Insert(database, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	found, err := GetByFileHash(database, "abc123")
	if err != nil {
		t.Fatalf("GetByFileHash failed: %v", err)
	}
	if found == nil || found.ID != r.ID {
		t.Errorf("GetByFileHash = %v, want record %d", found, r.ID)
	}

	missing, err := GetByFileHash(database, "nope")
	if err != nil {
		t.Fatalf("GetByFileHash failed: %v", err)
	}
	if missing != nil {
		t.Errorf("GetByFileHash for unknown hash = %v, want nil", missing)
	}
}

func TestUpdateDescription(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	id, err := Insert(database, newRecord("/tmp/a.png", 100))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	model := "gpt-4o-mini"
	fp := "deadbeefdeadbeef"
	if err := UpdateDescription(database, id, "blue login button", &model, &fp); err != nil {
		t.Fatalf("UpdateDescription failed: %v", err)
	}

	r, err := GetByID(database, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if r.Description != "blue login button" {
		t.Errorf("Description = %q", r.Description)
	}
	if r.Fingerprint == nil || *r.Fingerprint != fp {
		t.Errorf("Fingerprint = %v, want %q", r.Fingerprint, fp)
	}
	if r.DescribedAt == nil {
		t.Error("DescribedAt not set")
	}

	// A second update must not replace an existing fingerprint.
	other := "0000000000000000"
	if err := UpdateDescription(database, id, "updated text", &model, &other); err != nil {
		t.Fatalf("UpdateDescription failed: %v", err)
	}
	r, _ = GetByID(database, id)
	if *r.Fingerprint != fp {
		t.Errorf("Fingerprint overwritten to %q, want original %q", *r.Fingerprint, fp)
	}

	// Unknown id
	err = UpdateDescription(database, 999, "x", nil, nil)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("UpdateDescription unknown id: got %v, want NOT_FOUND", err)
	}
}

func TestSetFingerprintOnlyOnce(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	id, err := Insert(database, newRecord("/tmp/a.png", 100))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	set, err := SetFingerprint(database, id, "deadbeefdeadbeef")
	if err != nil || !set {
		t.Fatalf("SetFingerprint = (%v, %v), want (true, nil)", set, err)
	}

	set, err = SetFingerprint(database, id, "0000000000000000")
	if err != nil {
		t.Fatalf("SetFingerprint failed: %v", err)
	}
	if set {
		t.Error("SetFingerprint should not overwrite an existing fingerprint")
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	full := "full"
	left := "left_half"

	r1 := newRecord("/tmp/1.png", 100)
	r1.Region = &full
	r2 := newRecord("/tmp/2.png", 300)
	r2.Region = &left
	r3 := newRecord("/tmp/3.png", 200)
	r3.Region = &full
	for _, r := range []*screenshot.Record{r1, r2, r3} {
		if _, err := Insert(database, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	// Most-recent-first ordering
	records, err := List(database, screenshot.Filter{}, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 || records[0].CapturedAt != 300 || records[2].CapturedAt != 100 {
		t.Errorf("List order wrong: %+v", records)
	}

	// Region filter
	records, err = List(database, screenshot.Filter{Region: &full}, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("region filter: got %d, want 2", len(records))
	}

	// Conjunctive date + region filter
	from := int64(150)
	records, err = List(database, screenshot.Filter{Region: &full, From: &from}, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].CapturedAt != 200 {
		t.Errorf("conjunctive filter: %+v", records)
	}

	// Limit
	records, _ = List(database, screenshot.Filter{}, 2)
	if len(records) != 2 {
		t.Errorf("limit: got %d, want 2", len(records))
	}
}

func TestDeleteIdempotent(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	id, err := Insert(database, newRecord("/tmp/a.png", 100))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	deleted, err := Delete(database, id)
	if err != nil || !deleted {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", deleted, err)
	}

	deleted, err = Delete(database, id)
	if err != nil {
		t.Fatalf("second Delete errored: %v", err)
	}
	if deleted {
		t.Error("second Delete reported a removed row")
	}
}

func TestListOlderThan(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	now := time.Now().Unix()
	old := newRecord("/tmp/old.png", now-40*86400)
	fresh := newRecord("/tmp/fresh.png", now-5*86400)
	if _, err := Insert(database, old); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := Insert(database, fresh); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	expired, err := ListOlderThan(database, now-30*86400)
	if err != nil {
		t.Fatalf("ListOlderThan failed: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != old.ID {
		t.Errorf("expired = %+v, want only the 40d-old record", expired)
	}
}

func TestSearchHistoryAndStats(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	full := "full"
	r := newRecord("/tmp/a.png", 100)
	r.Region = &full
	r.SizeBytes = 2048
	if _, err := Insert(database, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := RecordSearch(database, "error", 1); err != nil {
		t.Fatalf("RecordSearch failed: %v", err)
	}
	searches, err := RecentSearches(database, 10)
	if err != nil {
		t.Fatalf("RecentSearches failed: %v", err)
	}
	if len(searches) != 1 || searches[0].Query != "error" {
		t.Errorf("searches = %+v", searches)
	}

	stats, err := GetStats(database)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalScreenshots != 1 || stats.TotalSizeBytes != 2048 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByRegion["full"] != 1 {
		t.Errorf("ByRegion = %v", stats.ByRegion)
	}
}
