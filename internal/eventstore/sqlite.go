package eventstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tomokana225/schedule-planning/internal/models"
)

// DefaultSQLiteDSN keeps the database in memory; nothing survives the process.
const DefaultSQLiteDSN = "file:planner?mode=memory&cache=shared"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS events (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL,
	start_at    TEXT NOT NULL,
	end_at      TEXT NOT NULL,
	type        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL,
	location    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_events_source ON events(source);
`

const insertSQL = `
INSERT INTO events (id, title, start_at, end_at, type, description, source, location)
VALUES (:id, :title, :start_at, :end_at, :type, :description, :source, :location)
`

type eventRow struct {
	Seq         int64  `db:"seq"`
	ID          string `db:"id"`
	Title       string `db:"title"`
	StartAt     string `db:"start_at"`
	EndAt       string `db:"end_at"`
	Type        string `db:"type"`
	Description string `db:"description"`
	Source      string `db:"source"`
	Location    string `db:"location"`
}

// SQLite is a Store backed by an sqlite3 database. Each mutation runs in a
// single transaction.
type SQLite struct {
	db  *sqlx.DB
	loc *time.Location
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
// Times are returned in loc.
func OpenSQLite(dsn string, loc *time.Location) (*SQLite, error) {
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}
	if loc == nil {
		loc = time.Local
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("eventstore: open db: %w", err)
	}
	// A memory database lives as long as one connection holds it.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventstore: ping: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventstore: apply schema: %w", err)
	}
	return &SQLite{db: db, loc: loc}, nil
}

// Close closes the underlying connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// List returns all events ordered by insertion.
func (s *SQLite) List(ctx context.Context) ([]models.Event, error) {
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM events ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("eventstore: list: %w", err)
	}
	out := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		e, err := s.fromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Append validates and inserts events in one transaction.
func (s *SQLite) Append(ctx context.Context, events ...models.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("eventstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	taken, err := existingIDs(ctx, tx, "")
	if err != nil {
		return err
	}
	if err := validateBatch(events, func(id string) bool { _, ok := taken[id]; return ok }); err != nil {
		return err
	}
	if err := insertAll(ctx, tx, events); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceExternal deletes the external rows and inserts batch in one transaction.
func (s *SQLite) ReplaceExternal(ctx context.Context, batch []models.Event) error {
	if err := requireExternal(batch); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("eventstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	taken, err := existingIDs(ctx, tx, string(models.SourceLocal))
	if err != nil {
		return err
	}
	if err := validateBatch(batch, func(id string) bool { _, ok := taken[id]; return ok }); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE source = ?`, string(models.SourceExternal)); err != nil {
		return fmt.Errorf("eventstore: delete external: %w", err)
	}
	if err := insertAll(ctx, tx, batch); err != nil {
		return err
	}
	return tx.Commit()
}

// existingIDs returns the ids in the table, restricted to source when non-empty.
func existingIDs(ctx context.Context, tx *sqlx.Tx, source string) (map[string]struct{}, error) {
	var ids []string
	var err error
	if source == "" {
		err = tx.SelectContext(ctx, &ids, `SELECT id FROM events`)
	} else {
		err = tx.SelectContext(ctx, &ids, `SELECT id FROM events WHERE source = ?`, source)
	}
	if err != nil {
		return nil, fmt.Errorf("eventstore: load ids: %w", err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func insertAll(ctx context.Context, tx *sqlx.Tx, events []models.Event) error {
	for _, e := range events {
		if _, err := tx.NamedExecContext(ctx, insertSQL, toRow(e)); err != nil {
			return fmt.Errorf("eventstore: insert %s: %w", e.ID, err)
		}
	}
	return nil
}

func toRow(e models.Event) eventRow {
	return eventRow{
		ID:          e.ID,
		Title:       e.Title,
		StartAt:     e.Start.Format(time.RFC3339Nano),
		EndAt:       e.End.Format(time.RFC3339Nano),
		Type:        string(e.Type),
		Description: e.Description,
		Source:      string(e.Source),
		Location:    e.Location,
	}
}

func (s *SQLite) fromRow(r eventRow) (models.Event, error) {
	start, err := time.Parse(time.RFC3339Nano, r.StartAt)
	if err != nil {
		return models.Event{}, fmt.Errorf("eventstore: row %s start: %w", r.ID, err)
	}
	end, err := time.Parse(time.RFC3339Nano, r.EndAt)
	if err != nil {
		return models.Event{}, fmt.Errorf("eventstore: row %s end: %w", r.ID, err)
	}
	return models.Event{
		ID:          r.ID,
		Title:       r.Title,
		Start:       start.In(s.loc),
		End:         end.In(s.loc),
		Type:        models.EventType(r.Type),
		Description: r.Description,
		Source:      models.Source(r.Source),
		Location:    r.Location,
	}, nil
}
