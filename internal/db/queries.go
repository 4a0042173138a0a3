package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/glimpse/internal/errors"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

const recordColumns = `id, storage_path, file_hash, source_url, region, captured_at,
	width, height, size_bytes, description, described_at, model, fingerprint, created_at`

// Insert stores a new screenshot record and returns its assigned id.
func Insert(db *sql.DB, r *screenshot.Record) (int64, error) {
	query := `
		INSERT INTO screenshots (
			storage_path, file_hash, source_url, region, captured_at,
			width, height, size_bytes, description, described_at, model,
			fingerprint, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.Exec(query,
		r.StoragePath, toNullString(optional(r.FileHash)), toNullString(r.SourceURL),
		toNullString(r.Region), r.CapturedAt, r.Width, r.Height, r.SizeBytes,
		r.Description, toNullInt64(r.DescribedAt), toNullString(r.Model),
		toNullString(r.Fingerprint), r.CreatedAt,
	)
	if err != nil {
		return 0, errors.NewStorage("insert screenshot", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	r.ID = id
	return id, nil
}

// GetByID retrieves a screenshot record by id.
func GetByID(db *sql.DB, id int64) (*screenshot.Record, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM screenshots WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewStorage("get screenshot", err)
	}
	return r, nil
}

// GetByFileHash retrieves a record by its content hash, or nil if absent.
func GetByFileHash(db *sql.DB, fileHash string) (*screenshot.Record, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM screenshots WHERE file_hash = ?`, fileHash)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorage("get screenshot by hash", err)
	}
	return r, nil
}

// UpdateDescription sets the description (and optionally the fingerprint,
// only if none is stored yet) for a record. Returns ErrNotFound for an
// unknown id.
func UpdateDescription(db *sql.DB, id int64, description string, model *string, fingerprint *string) error {
	now := time.Now().Unix()

	query := `
		UPDATE screenshots
		SET description = ?, described_at = ?, model = ?,
			fingerprint = COALESCE(fingerprint, ?)
		WHERE id = ?
	`

	result, err := db.Exec(query, description, now, toNullString(model), toNullString(fingerprint), id)
	if err != nil {
		return errors.NewStorage("update description", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// SetFingerprint stores a fingerprint for a record that does not have one.
// Returns false without error when a fingerprint was already present.
func SetFingerprint(db *sql.DB, id int64, fingerprint string) (bool, error) {
	result, err := db.Exec(
		`UPDATE screenshots SET fingerprint = ? WHERE id = ? AND fingerprint IS NULL`,
		fingerprint, id,
	)
	if err != nil {
		return false, errors.NewStorage("set fingerprint", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return rowsAffected > 0, nil
}

// List retrieves records most-recent-first, optionally filtered by region
// and capture-date range.
func List(db *sql.DB, f screenshot.Filter, limit int) ([]screenshot.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM screenshots WHERE 1=1`
	args := make([]any, 0, 4)

	if f.Region != nil {
		query += ` AND region = ?`
		args = append(args, *f.Region)
	}
	if f.From != nil {
		query += ` AND captured_at >= ?`
		args = append(args, *f.From)
	}
	if f.To != nil {
		query += ` AND captured_at <= ?`
		args = append(args, *f.To)
	}

	query += ` ORDER BY captured_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewStorage("list screenshots", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListAll streams every record, used to rebuild the in-memory indexes on open.
func ListAll(db *sql.DB) ([]screenshot.Record, error) {
	rows, err := db.Query(`SELECT ` + recordColumns + ` FROM screenshots ORDER BY id`)
	if err != nil {
		return nil, errors.NewStorage("scan screenshots", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListOlderThan returns records captured strictly before the cutoff.
func ListOlderThan(db *sql.DB, cutoff int64) ([]screenshot.Record, error) {
	rows, err := db.Query(
		`SELECT `+recordColumns+` FROM screenshots WHERE captured_at < ? ORDER BY captured_at`,
		cutoff,
	)
	if err != nil {
		return nil, errors.NewStorage("list expired screenshots", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Delete removes a record. Deleting an unknown id is a no-op; the boolean
// reports whether a row was actually removed.
func Delete(db *sql.DB, id int64) (bool, error) {
	result, err := db.Exec(`DELETE FROM screenshots WHERE id = ?`, id)
	if err != nil {
		return false, errors.NewStorage("delete screenshot", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return rowsAffected > 0, nil
}

// RecordSearch logs a query and its result count to search_history.
func RecordSearch(db *sql.DB, query string, resultsCount int) error {
	_, err := db.Exec(
		`INSERT INTO search_history (query, results_count, created_at) VALUES (?, ?, ?)`,
		query, resultsCount, time.Now().Unix(),
	)
	if err != nil {
		return errors.NewStorage("record search", err)
	}
	return nil
}

// SearchEntry is one row of the search_history log.
type SearchEntry struct {
	Query        string `json:"query"`
	ResultsCount int    `json:"results_count"`
	CreatedAt    int64  `json:"created_at"`
}

// RecentSearches returns the most recent logged queries.
func RecentSearches(db *sql.DB, limit int) ([]SearchEntry, error) {
	rows, err := db.Query(
		`SELECT query, results_count, created_at FROM search_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.NewStorage("recent searches", err)
	}
	defer rows.Close()

	entries := make([]SearchEntry, 0, limit)
	for rows.Next() {
		var e SearchEntry
		if err := rows.Scan(&e.Query, &e.ResultsCount, &e.CreatedAt); err != nil {
			return nil, errors.NewStorage("scan search history", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates store-wide counters.
type Stats struct {
	TotalScreenshots int            `json:"total_screenshots"`
	TotalSizeBytes   int64          `json:"total_size_bytes"`
	ByRegion         map[string]int `json:"by_region"`
}

// GetStats computes totals and per-region counts.
func GetStats(db *sql.DB) (*Stats, error) {
	s := &Stats{ByRegion: make(map[string]int)}

	row := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM screenshots`)
	if err := row.Scan(&s.TotalScreenshots, &s.TotalSizeBytes); err != nil {
		return nil, errors.NewStorage("stats totals", err)
	}

	rows, err := db.Query(`SELECT COALESCE(region, ''), COUNT(*) FROM screenshots GROUP BY region`)
	if err != nil {
		return nil, errors.NewStorage("stats by region", err)
	}
	defer rows.Close()

	for rows.Next() {
		var region string
		var count int
		if err := rows.Scan(&region, &count); err != nil {
			return nil, errors.NewStorage("scan region stats", err)
		}
		if region == "" {
			region = "unknown"
		}
		s.ByRegion[region] = count
	}
	return s, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a Record.
func scanRecord(row scanner) (*screenshot.Record, error) {
	var (
		r           screenshot.Record
		fileHash    sql.NullString
		sourceURL   sql.NullString
		region      sql.NullString
		describedAt sql.NullInt64
		model       sql.NullString
		fingerprint sql.NullString
	)

	err := row.Scan(
		&r.ID, &r.StoragePath, &fileHash, &sourceURL, &region, &r.CapturedAt,
		&r.Width, &r.Height, &r.SizeBytes, &r.Description, &describedAt,
		&model, &fingerprint, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fileHash.Valid {
		r.FileHash = fileHash.String
	}
	r.SourceURL = fromNullString(sourceURL)
	r.Region = fromNullString(region)
	r.Model = fromNullString(model)
	r.Fingerprint = fromNullString(fingerprint)
	if describedAt.Valid {
		r.DescribedAt = &describedAt.Int64
	}

	return &r, nil
}

func collectRecords(rows *sql.Rows) ([]screenshot.Record, error) {
	records := make([]screenshot.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewStorage("scan screenshot", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage("iterate screenshots", err)
	}
	return records, nil
}

// optional converts a non-empty string to a pointer.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// toNullInt64 converts a *int64 to sql.NullInt64.
func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
