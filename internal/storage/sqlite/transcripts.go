package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"voxloop/pkg/logger"
)

// TurnRecord is one logged conversation turn. The log is write-only during a
// session; it is never read back into the conversation, so history still
// starts empty on every launch.
type TurnRecord struct {
	ID        int64
	CycleID   string
	Role      string
	Content   string
	CreatedAt time.Time
}

// TranscriptStorage handles storage of session transcript records
type TranscriptStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewTranscriptStorage creates a new sqlite transcript storage
func NewTranscriptStorage(db *sql.DB, log *logger.Logger) (*TranscriptStorage, error) {
	storage := &TranscriptStorage{
		db:     db,
		logger: log.Named("sqlite-transcripts"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize transcript storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *TranscriptStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create transcripts table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_transcripts_cycle_id ON transcripts(cycle_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create transcript index: %w", err)
		}
	}

	return nil
}

// StoreTurn stores one conversation turn
func (s *TranscriptStorage) StoreTurn(record *TurnRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO transcripts (cycle_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		record.CycleID,
		record.Role,
		record.Content,
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transcript turn: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// GetTurnsByCycle returns the turns logged for one pipeline cycle in
// insertion order
func (s *TranscriptStorage) GetTurnsByCycle(cycleID string) ([]*TurnRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, cycle_id, role, content, created_at
		FROM transcripts
		WHERE cycle_id = ?
		ORDER BY id ASC`,
		cycleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns by cycle: %w", err)
	}
	defer rows.Close()

	return s.scanTurnRows(rows)
}

// GetRecentTurns returns the most recent turns across all cycles, newest
// first
func (s *TranscriptStorage) GetRecentTurns(limit int) ([]*TurnRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, cycle_id, role, content, created_at
		FROM transcripts
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent turns: %w", err)
	}
	defer rows.Close()

	return s.scanTurnRows(rows)
}

// scanTurnRows scans database rows into TurnRecord structs
func (s *TranscriptStorage) scanTurnRows(rows *sql.Rows) ([]*TurnRecord, error) {
	var records []*TurnRecord
	for rows.Next() {
		var record TurnRecord
		var createdAt string

		if err := rows.Scan(
			&record.ID,
			&record.CycleID,
			&record.Role,
			&record.Content,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transcript turn: %w", err)
		}

		var err error
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
