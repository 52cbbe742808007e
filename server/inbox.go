package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vcrobe/spashell/contact"
)

const inboxSchema = `
CREATE TABLE IF NOT EXISTS contacts (
    id      TEXT PRIMARY KEY,
    name    TEXT NOT NULL,
    email   TEXT NOT NULL,
    subject TEXT NOT NULL,
    message TEXT NOT NULL,
    date    TEXT NOT NULL,
    status  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contacts_date ON contacts(date);
`

// Message is a stored contact submission.
type Message struct {
	ID string `json:"id"`
	contact.Submission
}

// Inbox persists contact submissions.
type Inbox struct {
	db *sql.DB
}

// OpenInbox creates or opens the inbox database at path.
func OpenInbox(path string) (*Inbox, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating inbox directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening inbox: %w", err)
	}
	return initInbox(db)
}

// OpenInboxMemory opens a private in-memory inbox (useful for testing).
func OpenInboxMemory() (*Inbox, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory inbox: %w", err)
	}
	db.SetMaxOpenConns(1)
	return initInbox(db)
}

func initInbox(db *sql.DB) (*Inbox, error) {
	if _, err := db.Exec(inboxSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running inbox migrations: %w", err)
	}
	return &Inbox{db: db}, nil
}

// Add stores s under a fresh id and returns it.
func (in *Inbox) Add(ctx context.Context, s contact.Submission) (Message, error) {
	m := Message{ID: uuid.NewString(), Submission: s}
	_, err := in.db.ExecContext(ctx,
		`INSERT INTO contacts (id, name, email, subject, message, date, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, s.Name, s.Email, s.Subject, s.Message, s.Date, s.Status)
	if err != nil {
		return Message{}, fmt.Errorf("storing contact: %w", err)
	}
	return m, nil
}

// List returns every stored submission, newest first.
func (in *Inbox) List(ctx context.Context) ([]Message, error) {
	rows, err := in.db.QueryContext(ctx,
		`SELECT id, name, email, subject, message, date, status FROM contacts ORDER BY date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Date, &m.Status); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (in *Inbox) Close() error {
	return in.db.Close()
}
