package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_turns (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	meta       JSONB,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_turns_session ON chat_turns (session_id, id);
`

// TurnRepository is the append-only session log. Turns are never updated or
// reordered; a stored extraction blob is historical ground truth.
type TurnRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewTurnRepository creates a new turn repository
func NewTurnRepository(pool *pgxpool.Pool, log *logger.Logger) *TurnRepository {
	return &TurnRepository{
		pool:   pool,
		logger: log.WithComponent("turn-repository"),
	}
}

// Bootstrap creates the schema if it does not exist
func (r *TurnRepository) Bootstrap(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to bootstrap turn schema: %w", err)
	}
	return nil
}

// Append stores a new turn, filling in its assigned ID
func (r *TurnRepository) Append(ctx context.Context, turn *models.Turn) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO chat_turns (session_id, role, content, meta, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		turn.SessionID, string(turn.Role), turn.Content, metaOrNil(turn.Meta), turn.CreatedAt,
	).Scan(&turn.ID)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// LastN returns the most recent n turns for a session, oldest first
func (r *TurnRepository) LastN(ctx context.Context, sessionID string, n int) ([]models.Turn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, role, content, meta, created_at
		 FROM (
			SELECT id, session_id, role, content, meta, created_at
			FROM chat_turns WHERE session_id = $1 ORDER BY id DESC LIMIT $2
		 ) recent ORDER BY id ASC`,
		sessionID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// Full returns every turn for a session, oldest first
func (r *TurnRepository) Full(ctx context.Context, sessionID string) ([]models.Turn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, role, content, meta, created_at
		 FROM chat_turns WHERE session_id = $1 ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// ExtractedRecords returns the extraction snapshot of every turn that stored
// one. A turn whose blob fails to parse is skipped; aggregation continues
// with the remaining turns.
func (r *TurnRepository) ExtractedRecords(ctx context.Context, sessionID string) ([]models.EntityRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT meta FROM chat_turns WHERE session_id = $1 AND meta IS NOT NULL ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query extraction records: %w", err)
	}
	defer rows.Close()

	var records []models.EntityRecord
	for rows.Next() {
		var meta []byte
		if err := rows.Scan(&meta); err != nil {
			return nil, fmt.Errorf("failed to scan meta blob: %w", err)
		}
		record, ok := decodeExtracted(meta)
		if !ok {
			r.logger.Debug().Str("session_id", sessionID).Msg("skipping corrupt meta blob")
			continue
		}
		if len(record) > 0 {
			records = append(records, record)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate extraction records: %w", err)
	}
	return records, nil
}

// Clear deletes all turns for a session
func (r *TurnRepository) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM chat_turns WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func scanTurns(rows pgx.Rows) ([]models.Turn, error) {
	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		var role string
		var meta []byte
		if err := rows.Scan(&t.ID, &t.SessionID, &role, &t.Content, &meta, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Role = models.Role(role)
		t.Meta = meta
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}
	return turns, nil
}

// decodeExtracted pulls the extracted_info record out of a stored meta blob.
// Unknown categories are dropped by the EntityRecord key type.
func decodeExtracted(meta []byte) (models.EntityRecord, bool) {
	var wrapper struct {
		ExtractedInfo map[string][]string `json:"extracted_info"`
	}
	if err := json.Unmarshal(meta, &wrapper); err != nil {
		return nil, false
	}
	record := make(models.EntityRecord)
	for _, cat := range models.Categories {
		for _, v := range wrapper.ExtractedInfo[string(cat)] {
			record.Add(cat, v)
		}
	}
	return record, true
}

func metaOrNil(meta json.RawMessage) any {
	if len(meta) == 0 {
		return nil
	}
	return []byte(meta)
}
