package reminder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLitePersister keeps the tables in a single SQLite file. Save rewrites
// every table inside one transaction.
type SQLitePersister struct {
	db *sql.DB
}

// NewSQLitePersister opens (or creates) the database at dbPath and ensures
// the tables exist.
func NewSQLitePersister(dbPath string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLitePersister{db: db}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id        INTEGER PRIMARY KEY,
		pending_stage  INTEGER NOT NULL DEFAULT 0,
		pending_date   TEXT    NOT NULL DEFAULT '',
		draft_text     TEXT    NOT NULL DEFAULT '',
		draft_category TEXT    NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		user_id     INTEGER NOT NULL,
		category    TEXT    NOT NULL,
		position    INTEGER NOT NULL,
		text        TEXT    NOT NULL,
		due_at      TEXT    NOT NULL,
		reminder_id TEXT    NOT NULL,
		PRIMARY KEY (user_id, category, position)
	)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		id           TEXT    PRIMARY KEY,
		user_id      INTEGER NOT NULL,
		text         TEXT    NOT NULL,
		due_at       TEXT    NOT NULL,
		category     TEXT    NOT NULL,
		stage        INTEGER NOT NULL DEFAULT 0,
		acknowledged INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT    NOT NULL
	)`,
}

func createTables(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}

// Load reads all three tables into a snapshot.
func (p *SQLitePersister) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Users:     make(map[int64]*UserState),
		Reminders: make(map[string]*Reminder),
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT user_id, pending_stage, pending_date, draft_text, draft_category FROM users
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for rows.Next() {
		var (
			id       int64
			stage    int
			category string
		)
		u := &UserState{Tasks: []Item{}, Remembers: []Item{}}
		if err := rows.Scan(&id, &stage, &u.Pending.DateText, &u.DraftText, &category); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Pending.Stage = Stage(stage)
		u.DraftCategory = Category(category)
		snap.Users[id] = u
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	if err := p.loadItems(ctx, snap); err != nil {
		return nil, err
	}
	if err := p.loadReminders(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (p *SQLitePersister) loadItems(ctx context.Context, snap *Snapshot) error {
	rows, err := p.db.QueryContext(ctx, `
		SELECT user_id, category, text, due_at, reminder_id
		FROM items ORDER BY user_id, category, position
	`)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID        int64
			category, due string
			item          Item
		)
		if err := rows.Scan(&userID, &category, &item.Text, &due, &item.ReminderID); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		if item.DueAt, err = time.Parse(time.RFC3339Nano, due); err != nil {
			return fmt.Errorf("failed to parse item due_at %q: %w", due, err)
		}

		u, ok := snap.Users[userID]
		if !ok {
			u = &UserState{Tasks: []Item{}, Remembers: []Item{}}
			snap.Users[userID] = u
		}
		if Category(category) == CategoryTask {
			u.Tasks = append(u.Tasks, item)
		} else {
			u.Remembers = append(u.Remembers, item)
		}
	}
	return rows.Err()
}

func (p *SQLitePersister) loadReminders(ctx context.Context, snap *Snapshot) error {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, text, due_at, category, stage, acknowledged, created_at
		FROM reminders
	`)
	if err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                 Reminder
			due, created, cat string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Text, &due, &cat,
			&r.Stage, &r.Acknowledged, &created); err != nil {
			return fmt.Errorf("failed to scan reminder: %w", err)
		}
		r.Category = Category(cat)
		if r.DueAt, err = time.Parse(time.RFC3339Nano, due); err != nil {
			return fmt.Errorf("failed to parse due_at of reminder %s: %w", r.ID, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return fmt.Errorf("failed to parse created_at of reminder %s: %w", r.ID, err)
		}
		snap.Reminders[r.ID] = &r
	}
	return rows.Err()
}

// Save replaces the content of every table with snap.
func (p *SQLitePersister) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"users", "items", "reminders"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for id, u := range snap.Users {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (user_id, pending_stage, pending_date, draft_text, draft_category)
			VALUES (?, ?, ?, ?, ?)
		`, id, int(u.Pending.Stage), u.Pending.DateText, u.DraftText, string(u.DraftCategory)); err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		if err := insertItems(ctx, tx, id, CategoryTask, u.Tasks); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, id, CategoryRemember, u.Remembers); err != nil {
			return err
		}
	}

	for _, r := range snap.Reminders {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reminders (id, user_id, text, due_at, category, stage, acknowledged, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, r.UserID, r.Text, r.DueAt.Format(time.RFC3339Nano), string(r.Category),
			r.Stage, r.Acknowledged, r.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to insert reminder: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, userID int64, category Category, items []Item) error {
	for i, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items (user_id, category, position, text, due_at, reminder_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, userID, string(category), i, item.Text, item.DueAt.Format(time.RFC3339Nano), item.ReminderID); err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}
	return nil
}
