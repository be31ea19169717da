// CLAUDE:SUMMARY SQLite ledger of import sources: where each code list comes from, which release the rule packs were built from, the pack files written and the last drift check.
package importer

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Source is one import source and what is known about its last import and
// its last drift check.
type Source struct {
	AdapterID   string
	PackPrefix  string
	Description string
	URL         string
	License     string
	UpdatedAt   int64

	// Imported is nil until the first successful import.
	Imported *ImportRecord
	// Checked is nil until the first drift check.
	Checked *CheckRecord
}

// ImportRecord is the provenance of the packs currently on disk.
type ImportRecord struct {
	At      int64
	URL     string
	Version string
	Fetched Fetched
}

// CheckRecord is the outcome of the last drift check.
type CheckRecord struct {
	At     int64
	Status int
	State  DriftState
	Detail string
}

// SourceDB stores import sources and the pack files each import wrote.
type SourceDB struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS import_sources (
	adapter_id      TEXT PRIMARY KEY,
	pack_prefix     TEXT NOT NULL,
	description     TEXT NOT NULL,
	source_url      TEXT NOT NULL,
	license         TEXT NOT NULL DEFAULT '',
	updated_at      INTEGER NOT NULL,
	imported_at     INTEGER,
	imported_url    TEXT,
	code_version    TEXT,
	code_sha256     TEXT,
	code_size       INTEGER,
	code_etag       TEXT,
	code_modified   TEXT,
	checked_at      INTEGER,
	check_status    INTEGER,
	check_state     TEXT,
	check_detail    TEXT
);
CREATE TABLE IF NOT EXISTS pack_files (
	adapter_id  TEXT NOT NULL REFERENCES import_sources(adapter_id),
	locale      TEXT NOT NULL,
	path        TEXT NOT NULL,
	sha256      TEXT NOT NULL,
	entries     INTEGER NOT NULL,
	written_at  INTEGER NOT NULL,
	PRIMARY KEY (adapter_id, locale)
);`

// OpenSourceDB opens (or creates) the SQLite database at path.
func OpenSourceDB(path string) (*SourceDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open source db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create source tables: %w", err)
	}
	return &SourceDB{db: db}, nil
}

// Close closes the SQLite connection.
func (s *SourceDB) Close() error {
	return s.db.Close()
}

// Seed inserts a row for each adapter. Existing rows are left untouched so
// URL overrides and import history survive restarts.
func (s *SourceDB) Seed(adapters []Adapter) error {
	const q = `INSERT OR IGNORE INTO import_sources
		(adapter_id, pack_prefix, description, source_url, license, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now().Unix()
	for _, a := range adapters {
		if _, err := s.db.Exec(q, a.ID(), a.PackID(), a.Description(), a.DefaultURL(), a.License(), now); err != nil {
			return fmt.Errorf("seed %s: %w", a.ID(), err)
		}
	}
	return nil
}

// GetURL returns the current source URL of an adapter.
func (s *SourceDB) GetURL(adapterID string) (string, error) {
	var url string
	err := s.db.QueryRow(`SELECT source_url FROM import_sources WHERE adapter_id = ?`, adapterID).Scan(&url)
	if err != nil {
		return "", fmt.Errorf("get url for %s: %w", adapterID, err)
	}
	return url, nil
}

// SetURL points an adapter at a new source URL. The next drift check
// reports the source as changed until it is imported from that URL.
func (s *SourceDB) SetURL(adapterID, url string) error {
	res, err := s.db.Exec(
		`UPDATE import_sources SET source_url = ?, updated_at = ? WHERE adapter_id = ?`,
		url, time.Now().Unix(), adapterID,
	)
	if err != nil {
		return fmt.Errorf("set url for %s: %w", adapterID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("adapter %s not found in import_sources", adapterID)
	}
	return nil
}

// RecordImport stores the provenance of a successful import and replaces
// the adapter's pack file list with the packs it wrote.
func (s *SourceDB) RecordImport(adapterID, url string, res *Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("record import %s: %w", adapterID, err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	r, err := tx.Exec(`UPDATE import_sources SET
		imported_at = ?, imported_url = ?, code_version = ?, code_sha256 = ?,
		code_size = ?, code_etag = ?, code_modified = ?
		WHERE adapter_id = ?`,
		now, url, res.Version, res.Fetched.SHA256,
		res.Fetched.Size, res.Fetched.ETag, res.Fetched.LastModified, adapterID)
	if err != nil {
		return fmt.Errorf("record import %s: %w", adapterID, err)
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return fmt.Errorf("adapter %s not found in import_sources", adapterID)
	}

	if _, err := tx.Exec(`DELETE FROM pack_files WHERE adapter_id = ?`, adapterID); err != nil {
		return fmt.Errorf("record import %s: clear packs: %w", adapterID, err)
	}
	for _, p := range res.Packs {
		path, err := filepath.Abs(p.Path)
		if err != nil {
			path = p.Path
		}
		if _, err := tx.Exec(`INSERT INTO pack_files
			(adapter_id, locale, path, sha256, entries, written_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			adapterID, p.Locale, path, p.SHA256, p.Entries, now); err != nil {
			return fmt.Errorf("record import %s: pack %s: %w", adapterID, p.Locale, err)
		}
	}
	return tx.Commit()
}

// Packs returns the pack files the last import of an adapter wrote,
// ordered by locale.
func (s *SourceDB) Packs(adapterID string) ([]Pack, error) {
	rows, err := s.db.Query(`SELECT locale, path, sha256, entries
		FROM pack_files WHERE adapter_id = ? ORDER BY locale`, adapterID)
	if err != nil {
		return nil, fmt.Errorf("list packs for %s: %w", adapterID, err)
	}
	defer rows.Close()

	var packs []Pack
	for rows.Next() {
		var p Pack
		if err := rows.Scan(&p.Locale, &p.Path, &p.SHA256, &p.Entries); err != nil {
			return nil, fmt.Errorf("scan pack: %w", err)
		}
		packs = append(packs, p)
	}
	return packs, rows.Err()
}

// RecordCheck persists the outcome of a drift check.
func (s *SourceDB) RecordCheck(adapterID string, c CheckRecord) error {
	_, err := s.db.Exec(`UPDATE import_sources SET
		checked_at = ?, check_status = ?, check_state = ?, check_detail = ?
		WHERE adapter_id = ?`,
		c.At, c.Status, string(c.State), c.Detail, adapterID)
	if err != nil {
		return fmt.Errorf("record check for %s: %w", adapterID, err)
	}
	return nil
}

// GetSource returns one source by adapter ID.
func (s *SourceDB) GetSource(adapterID string) (*Source, error) {
	row := s.db.QueryRow(selectSources+` WHERE adapter_id = ?`, adapterID)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("adapter %s not found in import_sources", adapterID)
	}
	return src, err
}

// ListSources returns every source ordered by adapter ID.
func (s *SourceDB) ListSources() ([]Source, error) {
	rows, err := s.db.Query(selectSources + ` ORDER BY adapter_id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

const selectSources = `SELECT adapter_id, pack_prefix, description, source_url, license, updated_at,
	imported_at, imported_url, code_version, code_sha256, code_size, code_etag, code_modified,
	checked_at, check_status, check_state, check_detail
	FROM import_sources`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*Source, error) {
	var (
		src                                        Source
		importedAt, codeSize, checkedAt, checkCode sql.NullInt64
		importedURL, version, sha, etag, modified  sql.NullString
		state, detail                              sql.NullString
	)
	err := row.Scan(&src.AdapterID, &src.PackPrefix, &src.Description, &src.URL, &src.License, &src.UpdatedAt,
		&importedAt, &importedURL, &version, &sha, &codeSize, &etag, &modified,
		&checkedAt, &checkCode, &state, &detail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan source: %w", err)
	}
	if importedAt.Valid {
		src.Imported = &ImportRecord{
			At:      importedAt.Int64,
			URL:     importedURL.String,
			Version: version.String,
			Fetched: Fetched{
				SHA256:       sha.String,
				Size:         codeSize.Int64,
				ETag:         etag.String,
				LastModified: modified.String,
			},
		}
	}
	if checkedAt.Valid {
		src.Checked = &CheckRecord{
			At:     checkedAt.Int64,
			Status: int(checkCode.Int64),
			State:  DriftState(state.String),
			Detail: detail.String,
		}
	}
	return &src, nil
}
