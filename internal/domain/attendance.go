package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceEvent is one immutable entry in an employee's clock ledger.
// Events are append-only and ordered by timestamp.
type AttendanceEvent struct {
	ID         uuid.UUID   `json:"id"`
	EmployeeID uuid.UUID   `json:"-"`
	Status     ClockStatus `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
}

// DaySummary is one bucket of a day-by-day rollup.
type DaySummary struct {
	Day      string  `json:"day"` // YYYY-MM-DD
	Hours    float64 `json:"hours"`
	Earnings float64 `json:"earnings"`
}
