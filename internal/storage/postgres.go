// internal/storage/postgres.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"message-stats/internal/model"
	"message-stats/internal/query"
)

var (
	// ErrMessageNotFound is returned when no message matches the uuid.
	ErrMessageNotFound = errors.New("message not found")
	// ErrDuplicateMessage is returned when a message with the same uuid
	// already exists. Uniqueness is enforced by the primary key, so there
	// is no window between check and insert.
	ErrDuplicateMessage = errors.New("message already exists")
)

const uniqueViolation = "23505"

type Storage struct {
	DB *sql.DB
}

func NewStorage(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{DB: db}, nil
}

// EnsureSchema creates the messages table if it does not exist
func (s *Storage) EnsureSchema() error {
	_, err := s.DB.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			uuid UUID PRIMARY KEY,
			customerid INTEGER NOT NULL,
			type TEXT NOT NULL,
			amount NUMERIC(10,3) NOT NULL,
			date DATE NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}
	return nil
}

// InsertMessage persists one message, stamping its date with the server
// clock. A primary-key violation maps to ErrDuplicateMessage.
func (s *Storage) InsertMessage(m *model.Message) error {
	m.Date = time.Now()
	_, err := s.DB.Exec(`
		INSERT INTO messages (uuid, customerid, type, amount, date)
		VALUES ($1, $2, $3, $4, $5)
	`, m.UUID, m.CustomerID, m.Type, m.Amount, m.Date)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages retrieves every message in natural (primary key) order
func (s *Storage) ListMessages() ([]model.Message, error) {
	return s.ListFiltered(query.Filter{})
}

// GetMessageByUUID retrieves a single message by its uuid
func (s *Storage) GetMessageByUUID(id uuid.UUID) (*model.Message, error) {
	var m model.Message
	err := s.DB.QueryRow(`
		SELECT uuid, customerid, type, amount, date
		FROM messages
		WHERE uuid = $1
	`, id).Scan(&m.UUID, &m.CustomerID, &m.Type, &m.Amount, &m.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query message %s: %w", id, err)
	}
	return &m, nil
}

// ListFiltered retrieves the messages matching the filter's predicate
func (s *Storage) ListFiltered(f query.Filter) ([]model.Message, error) {
	q := `SELECT uuid, customerid, type, amount, date FROM messages`
	where, args := f.Where()
	if where != "" {
		q += " " + where
	}

	rows, err := s.DB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.UUID, &m.CustomerID, &m.Type, &m.Amount, &m.Date); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows failed: %w", err)
	}
	return messages, nil
}
