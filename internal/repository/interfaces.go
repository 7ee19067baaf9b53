package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/veriface/punchclock/internal/domain"
)

// EmployeeRepositoryInterface defines operations for employee data access
type EmployeeRepositoryInterface interface {
	Create(ctx context.Context, employee *domain.Employee) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error)
	List(ctx context.Context) ([]domain.Employee, error)
	UpdateHourlyRate(ctx context.Context, id uuid.UUID, rate float64) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TemplateRecord is a face template as stored: the embedding is still the
// at-rest text blob. Decoding happens in the template store so that one
// undecodable record cannot abort a full load.
type TemplateRecord struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	Embedding  string
	CreatedAt  time.Time
}

// TemplateRepositoryInterface defines operations for face template data access
type TemplateRepositoryInterface interface {
	Create(ctx context.Context, employeeID uuid.UUID, embedding []float32) (*domain.FaceTemplate, error)
	ListAll(ctx context.Context) ([]TemplateRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttendanceRepositoryInterface defines operations for the attendance ledger
type AttendanceRepositoryInterface interface {
	Append(ctx context.Context, event *domain.AttendanceEvent) error
	LastByEmployee(ctx context.Context, employeeID uuid.UUID) (*domain.AttendanceEvent, error)
	ListByEmployeeInRange(ctx context.Context, employeeID uuid.UUID, start, end time.Time) ([]domain.AttendanceEvent, error)
}
