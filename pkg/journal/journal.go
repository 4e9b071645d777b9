// Package journal keeps an audit trail of settled console actions in a
// SQL database. It is optional: without a DSN every record is dropped.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one settled action.
type Entry struct {
	SessionID string    `db:"session_id"`
	Role      string    `db:"role"`
	Action    string    `db:"action"`
	Outcome   string    `db:"outcome"`
	Message   string    `db:"message"`
	At        time.Time `db:"recorded_at"`
}

// Journal records settled actions.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// NoOp drops every entry.
type NoOp struct{}

func (NoOp) Record(ctx context.Context, e Entry) error { return nil }
func (NoOp) Close() error                              { return nil }

// SQLJournal writes entries to the console_actions table.
type SQLJournal struct {
	db *sqlx.DB
}

// Open connects to the journal database. An empty dsn returns NoOp.
func Open(ctx context.Context, driver, dsn string) (Journal, error) {
	if dsn == "" {
		return NoOp{}, nil
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: connect %s: %w", driver, err)
	}

	j, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// New uses an existing connection and creates the table if needed.
func New(ctx context.Context, db *sqlx.DB) (*SQLJournal, error) {
	if _, err := db.ExecContext(ctx, schemaFor(db.DriverName())); err != nil {
		return nil, fmt.Errorf("journal: create table: %w", err)
	}
	return &SQLJournal{db: db}, nil
}

func schemaFor(driver string) string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == "postgres" {
		id = "BIGSERIAL PRIMARY KEY"
	}
	return `CREATE TABLE IF NOT EXISTS console_actions (
		id ` + id + `,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		action TEXT NOT NULL,
		outcome TEXT NOT NULL,
		message TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	)`
}

// Record inserts e.
func (j *SQLJournal) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := j.db.NamedExecContext(ctx, `INSERT INTO console_actions
		(session_id, role, action, outcome, message, recorded_at)
		VALUES (:session_id, :role, :action, :outcome, :message, :recorded_at)`, e)
	if err != nil {
		return fmt.Errorf("journal: record %s: %w", e.Action, err)
	}
	return nil
}

// Close closes the database.
func (j *SQLJournal) Close() error {
	return j.db.Close()
}
