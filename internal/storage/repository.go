package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps session state in a scratch SQLite database. Rows are
// keyed by session ID and removed when the session ends; Purge clears rows
// left behind by a previous process.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps TryNotify and EndSession free of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Purge deletes every session. Called at start-up.
func (r *SQLiteRepository) Purge(ctx context.Context) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"notifications", "caps", "entries", "sessions"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("purge %s: %w", table, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) touchSession(ctx context.Context, id string) error {
	now := r.now().Unix()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, last_seen) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET last_seen = excluded.last_seen`,
		id, now, now)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// AppendEntry implements store.EntryWriter
func (r *SQLiteRepository) AppendEntry(ctx context.Context, id string, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := r.touchSession(ctx, id); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (session_id, entry_date, category, amount_cents, note) VALUES (?, ?, ?, ?, ?)`,
		id, e.Date.String(), e.Category.String(), e.Amount.Cents, e.Note)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	rowID, _ := res.LastInsertId()
	slog.DebugContext(ctx, "Entry saved to SQLite",
		"id", rowID,
		log.FieldSessionID, id,
		log.FieldCategory, e.Category.String(),
		log.FieldAmountCents, e.Amount.Cents,
		"date", e.Date.String())
	return nil
}

// ListEntries implements store.EntryLister
func (r *SQLiteRepository) ListEntries(ctx context.Context, id string) ([]core.Entry, error) {
	if err := r.touchSession(ctx, id); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT entry_date, category, amount_cents, note FROM entries WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		var dateStr, catStr, note string
		var cents int64
		if err := rows.Scan(&dateStr, &catStr, &cents, &note); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		date, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse entry date %q: %w", dateStr, err)
		}
		cat, err := core.ParseCategory(catStr)
		if err != nil {
			return nil, fmt.Errorf("parse entry category: %w", err)
		}
		entries = append(entries, core.Entry{Date: date, Category: cat, Amount: core.Money{Cents: cents}, Note: note})
	}
	return entries, rows.Err()
}

// SetCap implements store.CapStore
func (r *SQLiteRepository) SetCap(ctx context.Context, id string, c core.Category, amount core.Money) error {
	if !c.Valid() {
		return core.ErrUnknownCategory
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if err := r.touchSession(ctx, id); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO caps (session_id, category, amount_cents) VALUES (?, ?, ?)
		 ON CONFLICT(session_id, category) DO UPDATE SET amount_cents = excluded.amount_cents`,
		id, c.String(), amount.Cents)
	if err != nil {
		return fmt.Errorf("upsert cap: %w", err)
	}
	return nil
}

// ReadCaps implements store.CapStore
func (r *SQLiteRepository) ReadCaps(ctx context.Context, id string) (core.CapTable, error) {
	var caps core.CapTable

	rows, err := r.db.QueryContext(ctx, `SELECT category, amount_cents FROM caps WHERE session_id = ?`, id)
	if err != nil {
		return caps, fmt.Errorf("query caps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var catStr string
		var cents int64
		if err := rows.Scan(&catStr, &cents); err != nil {
			return caps, fmt.Errorf("scan cap: %w", err)
		}
		cat, err := core.ParseCategory(catStr)
		if err != nil {
			return caps, fmt.Errorf("parse cap category: %w", err)
		}
		caps.Set(cat, core.Money{Cents: cents})
	}
	return caps, rows.Err()
}

// TryNotify implements store.NotificationLedger
func (r *SQLiteRepository) TryNotify(ctx context.Context, id string, key core.NotificationKey) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO notifications (session_id, year, month, category, notified_at) VALUES (?, ?, ?, ?, ?)`,
		id, key.Year, key.Month, key.Category.String(), r.now().Unix())
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("notification rows affected: %w", err)
	}
	return n == 1, nil
}

// EndSession implements store.SessionEnder
func (r *SQLiteRepository) EndSession(ctx context.Context, id string) error {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		return deleteSession(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	slog.InfoContext(ctx, "Session ended", log.FieldSessionID, id)
	return nil
}

// SweepIdle implements store.SessionEnder
func (r *SQLiteRepository) SweepIdle(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := r.now().Add(-ttl).Unix()

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM sessions WHERE last_seen < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("query idle sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan idle session: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, nil
	}
	err = r.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if err := deleteSession(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sweep idle sessions: %w", err)
	}
	return len(ids), nil
}

func deleteSession(ctx context.Context, tx *sql.Tx, id string) error {
	for _, q := range []string{
		`DELETE FROM notifications WHERE session_id = ?`,
		`DELETE FROM caps WHERE session_id = ?`,
		`DELETE FROM entries WHERE session_id = ?`,
		`DELETE FROM sessions WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
