package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/veriface/punchclock/internal/domain"
)

type AttendanceRepository struct {
	pool PgxPool
}

func NewAttendanceRepository(pool PgxPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Append writes one ledger event. Events are never updated or deleted.
func (r *AttendanceRepository) Append(ctx context.Context, event *domain.AttendanceEvent) error {
	query := `
		INSERT INTO attendance_events (id, employee_id, status, timestamp)
		VALUES ($1, $2, $3, $4)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.EmployeeID,
		event.Status,
		event.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("append attendance event: %w", err)
	}

	return nil
}

// LastByEmployee returns the most recent event, or (nil, nil) when the
// employee has never clocked: callers treat absence as clocked out.
func (r *AttendanceRepository) LastByEmployee(ctx context.Context, employeeID uuid.UUID) (*domain.AttendanceEvent, error) {
	query := `
		SELECT id, employee_id, status, timestamp
		FROM attendance_events
		WHERE employee_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var event domain.AttendanceEvent
	err := r.pool.QueryRow(ctx, query, employeeID).Scan(
		&event.ID,
		&event.EmployeeID,
		&event.Status,
		&event.Timestamp,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last attendance event: %w", err)
	}

	return &event, nil
}

// ListByEmployeeInRange returns the employee's events inside [start, end],
// ordered by timestamp ascending.
func (r *AttendanceRepository) ListByEmployeeInRange(ctx context.Context, employeeID uuid.UUID, start, end time.Time) ([]domain.AttendanceEvent, error) {
	query := `
		SELECT id, employee_id, status, timestamp
		FROM attendance_events
		WHERE employee_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp
	`

	rows, err := r.pool.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list attendance events: %w", err)
	}
	defer rows.Close()

	var events []domain.AttendanceEvent
	for rows.Next() {
		var e domain.AttendanceEvent
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Status, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan attendance event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attendance events: %w", err)
	}

	return events, nil
}
