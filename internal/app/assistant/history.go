package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgHistoryStore persists chat exchanges in PostgreSQL.
type PgHistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore wraps the shared connection pool.
func NewHistoryStore(pool *pgxpool.Pool) *PgHistoryStore {
	return &PgHistoryStore{pool: pool}
}

// InsertChat records one question/answer exchange. The answer points are
// stored newline-joined; attachments are stored as JSON.
func (s *PgHistoryStore) InsertChat(ctx context.Context, userID, question string, answer []string, attachments []Attachment) error {
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return fmt.Errorf("failed to encode attachments: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO chat_history (user_id, question, answer, attachments)
		 VALUES ($1, $2, $3, $4)`,
		userID, question, strings.Join(answer, "\n"), attachmentsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat history: %w", err)
	}

	return nil
}
