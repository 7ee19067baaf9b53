package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClockStatus is the attendance state of an employee. It is always derived
// from the most recent attendance event; absence of events means clocked out.
type ClockStatus string

const (
	ClockedIn  ClockStatus = "clocked_in"
	ClockedOut ClockStatus = "clocked_out"
)

// Toggled returns the opposite status.
func (s ClockStatus) Toggled() ClockStatus {
	if s == ClockedIn {
		return ClockedOut
	}
	return ClockedIn
}

// Employee represents an enrolled person. Status is intentionally absent:
// it is a query over the attendance ledger, never stored on the record.
type Employee struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	HourlyRate float64   `json:"hourly_rate"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FaceTemplate is one enrolled face embedding. An employee owns zero or
// more templates; deleting the employee deletes them all.
type FaceTemplate struct {
	ID         uuid.UUID `json:"id"`
	EmployeeID uuid.UUID `json:"-"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
