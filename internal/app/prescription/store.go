package prescription

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Default schedule and status stamped onto newly parsed medications; the
// reminder UI refines them later.
const (
	defaultSchedule = `["8:00"]`
	defaultStatus   = `["pending"]`
)

// StoredMedication is a persisted medication row.
type StoredMedication struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Schedule  string `json:"schedule,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Store persists medication entries in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps the shared connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertMedications saves every parsed entry with the default schedule and
// status.
func (s *Store) InsertMedications(ctx context.Context, medications []Medication) error {
	for _, med := range medications {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO medications (name, dosage, frequency, schedule, status)
			 VALUES ($1, $2, $3, $4, $5)`,
			med.Name, med.Dosage, med.Frequency, defaultSchedule, defaultStatus,
		)
		if err != nil {
			return fmt.Errorf("failed to insert medication %q: %w", med.Name, err)
		}
	}

	return nil
}

// ListMedications returns all persisted entries, newest first.
func (s *Store) ListMedications(ctx context.Context) ([]StoredMedication, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, dosage, frequency, COALESCE(schedule, ''), COALESCE(status, '')
		 FROM medications ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	var medications []StoredMedication
	for rows.Next() {
		var med StoredMedication
		if err := rows.Scan(&med.ID, &med.Name, &med.Dosage, &med.Frequency, &med.Schedule, &med.Status); err != nil {
			return nil, fmt.Errorf("failed to scan medication row: %w", err)
		}
		medications = append(medications, med)
	}

	return medications, rows.Err()
}
