// Package history keeps labelled clipboard snapshots in a SQLite database.
package history

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/config"
	"clipkeeper/pkg/filter"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound  = stderrors.New("history entry not found")
	ErrAmbiguous = stderrors.New("history reference is ambiguous")
)

// AmbiguousError lists the ids a short reference matched.
type AmbiguousError struct {
	Ref     string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s: '%s' matches %d entries", ErrAmbiguous, e.Ref, len(e.Matches))
}

func (e *AmbiguousError) Unwrap() error {
	return ErrAmbiguous
}

const selectEntriesWhere = `SELECT
		id,
		label,
		created_at,
		format_count,
		total_bytes
	FROM snapshots WHERE 1=1
	`

// Entry describes one stored snapshot without its payloads.
type Entry struct {
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"label" yaml:"label"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	FormatCount int       `json:"format_count" yaml:"format_count"`
	TotalBytes  int64     `json:"total_bytes" yaml:"total_bytes"`
}

// ShortID is the id prefix shown in tables.
func (e Entry) ShortID() string {
	if len(e.ID) > 8 {
		return e.ID[:8]
	}
	return e.ID
}

// Retention bounds the history. Zero values disable a bound.
type Retention struct {
	MaxEntries int
	MaxAge     time.Duration
}

type Stats struct {
	Entries    int       `json:"entries" yaml:"entries"`
	TotalBytes int64     `json:"total_bytes" yaml:"total_bytes"`
	Oldest     time.Time `json:"oldest,omitempty" yaml:"oldest,omitempty"`
	Newest     time.Time `json:"newest,omitempty" yaml:"newest,omitempty"`
}

type Manager struct {
	db  *sql.DB
	now func() time.Time
}

func NewManager(dbPath string) (*Manager, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	hm := &Manager{db: db, now: time.Now}
	if err := hm.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return hm, nil
}

// NewManagerFromConfig opens the database configured in cfg.
func NewManagerFromConfig(cfg *config.Config) (*Manager, error) {
	return NewManager(cfg.HistoryPath())
}

// RetentionFromConfig returns the retention bounds configured in cfg.
func RetentionFromConfig(cfg *config.Config) Retention {
	return Retention{
		MaxEntries: cfg.History.MaxEntries,
		MaxAge:     cfg.History.MaxAge,
	}
}

func (hm *Manager) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			format_count INTEGER NOT NULL,
			total_bytes INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_formats (
			snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			format_id INTEGER NOT NULL,
			format_name TEXT,
			data BLOB NOT NULL,
			PRIMARY KEY (snapshot_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_label ON snapshots(label)`,
	}

	for _, query := range queries {
		if _, err := hm.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

func (hm *Manager) Close() error {
	return hm.db.Close()
}

// Add stores s under a new id.
func (hm *Manager) Add(label string, s clipboard.Snapshot) (Entry, error) {
	entry := Entry{
		ID:          uuid.NewString(),
		Label:       label,
		CreatedAt:   hm.now().UTC(),
		FormatCount: s.Len(),
		TotalBytes:  int64(s.TotalSize()),
	}

	tx, err := hm.db.Begin()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO snapshots (id, label, created_at, format_count, total_bytes)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.Label, entry.CreatedAt.UnixNano(), entry.FormatCount, entry.TotalBytes); err != nil {
		return Entry{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO snapshot_formats (snapshot_id, position, format_id, format_name, data)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, f := range s.Formats() {
		var name sql.NullString
		if n, ok := f.Name(); ok {
			name = sql.NullString{String: n, Valid: true}
		}
		if _, err := stmt.Exec(entry.ID, i, int64(f.Number()), name, f.Data); err != nil {
			return Entry{}, fmt.Errorf("failed to insert format %s: %w", f.DisplayName(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return entry, nil
}

// List returns the entries matching f, newest first.
func (hm *Manager) List(f filter.EntryFilter) ([]Entry, error) {
	query := selectEntriesWhere
	var args []any
	if !f.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, f.Since.UnixNano())
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := hm.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		ok, err := f.MatchesEntry(e.Label, e.CreatedAt)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entries = append(entries, e)
		if f.Limit > 0 && len(entries) >= f.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var created int64
	if err := row.Scan(&e.ID, &e.Label, &created, &e.FormatCount, &e.TotalBytes); err != nil {
		return Entry{}, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return e, nil
}

// Resolve finds the entry whose id equals ref or starts with it.
func (hm *Manager) Resolve(ref string) (Entry, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return Entry{}, fmt.Errorf("%w: empty reference", ErrNotFound)
	}

	rows, err := hm.db.Query(selectEntriesWhere+" AND id LIKE ? ESCAPE '\\' ORDER BY created_at DESC LIMIT 10", escapeLike(ref)+"%")
	if err != nil {
		return Entry{}, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var matches []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Entry{}, err
		}
		if e.ID == ref {
			return e, nil
		}
		matches = append(matches, e)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, fmt.Errorf("failed to read snapshots: %w", err)
	}

	switch len(matches) {
	case 0:
		return Entry{}, fmt.Errorf("%w: '%s'", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return Entry{}, &AmbiguousError{Ref: ref, Matches: ids}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Get loads the entry ref resolves to together with its snapshot.
func (hm *Manager) Get(ref string) (Entry, clipboard.Snapshot, error) {
	entry, err := hm.Resolve(ref)
	if err != nil {
		return Entry{}, clipboard.Snapshot{}, err
	}

	rows, err := hm.db.Query(`
		SELECT format_id, format_name, data
		FROM snapshot_formats
		WHERE snapshot_id = ?
		ORDER BY position
	`, entry.ID)
	if err != nil {
		return Entry{}, clipboard.Snapshot{}, fmt.Errorf("failed to query formats: %w", err)
	}
	defer rows.Close()

	var formats []clipboard.Format
	for rows.Next() {
		var id int64
		var name sql.NullString
		var data []byte
		if err := rows.Scan(&id, &name, &data); err != nil {
			return Entry{}, clipboard.Snapshot{}, fmt.Errorf("failed to scan format: %w", err)
		}

		var stored *string
		if name.Valid {
			stored = &name.String
		}
		fid, err := clipboard.ParseFormatID(uint32(id), stored)
		if err != nil {
			return Entry{}, clipboard.Snapshot{}, fmt.Errorf("corrupt format in snapshot %s: %w", entry.ID, err)
		}
		formats = append(formats, clipboard.NewFormat(fid, data))
	}
	if err := rows.Err(); err != nil {
		return Entry{}, clipboard.Snapshot{}, fmt.Errorf("failed to read formats: %w", err)
	}

	return entry, clipboard.NewSnapshot(formats...), nil
}

// Delete removes the entry ref resolves to and returns it.
func (hm *Manager) Delete(ref string) (Entry, error) {
	entry, err := hm.Resolve(ref)
	if err != nil {
		return Entry{}, err
	}

	if _, err := hm.db.Exec("DELETE FROM snapshots WHERE id = ?", entry.ID); err != nil {
		return Entry{}, fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return entry, nil
}

// Prune deletes entries older than r.MaxAge and then the oldest entries
// beyond r.MaxEntries. It returns the number of entries removed.
func (hm *Manager) Prune(r Retention) (int, error) {
	tx, err := hm.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed := 0

	if r.MaxAge > 0 {
		cutoff := hm.now().Add(-r.MaxAge).UnixNano()
		res, err := tx.Exec("DELETE FROM snapshots WHERE created_at < ?", cutoff)
		if err != nil {
			return 0, fmt.Errorf("failed to prune old snapshots: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}

	if r.MaxEntries > 0 {
		res, err := tx.Exec(`
			DELETE FROM snapshots WHERE id IN (
				SELECT id FROM snapshots
				ORDER BY created_at DESC, rowid DESC
				LIMIT -1 OFFSET ?
			)
		`, r.MaxEntries)
		if err != nil {
			return 0, fmt.Errorf("failed to prune excess snapshots: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return removed, nil
}

func (hm *Manager) Stats() (Stats, error) {
	var st Stats
	var total, oldest, newest sql.NullInt64
	err := hm.db.QueryRow("SELECT COUNT(*), SUM(total_bytes), MIN(created_at), MAX(created_at) FROM snapshots").
		Scan(&st.Entries, &total, &oldest, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query history stats: %w", err)
	}

	st.TotalBytes = total.Int64
	if oldest.Valid {
		st.Oldest = time.Unix(0, oldest.Int64).UTC()
	}
	if newest.Valid {
		st.Newest = time.Unix(0, newest.Int64).UTC()
	}
	return st, nil
}
