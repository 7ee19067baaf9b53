package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/veriface/punchclock/internal/domain"
)

// TimesheetService answers hour, earning and rollup queries over the
// attendance ledger.
type TimesheetService interface {
	Status(ctx context.Context, employeeID uuid.UUID) (domain.ClockStatus, error)
	HoursAndEarnings(ctx context.Context, employeeID uuid.UUID, start, end time.Time) (float64, float64, error)
	DailyRollup(ctx context.Context, employeeID uuid.UUID, days int) ([]domain.DaySummary, error)
}

// TimesheetHandler serves per-employee hour and earning reports.
type TimesheetHandler struct {
	service TimesheetService
	logger  *slog.Logger
}

// NewTimesheetHandler creates a timesheet handler.
func NewTimesheetHandler(service TimesheetService, logger *slog.Logger) *TimesheetHandler {
	return &TimesheetHandler{service: service, logger: logger}
}

// TimesheetResponse reports worked hours and earnings in a range.
type TimesheetResponse struct {
	EmployeeID string  `json:"employee_id"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Hours      float64 `json:"hours"`
	Earnings   float64 `json:"earnings"`
	Status     string  `json:"status"`
}

// RollupResponse is a day-bucketed report.
type RollupResponse struct {
	EmployeeID string              `json:"employee_id"`
	Days       []domain.DaySummary `json:"days"`
}

// GetTimesheet GET /v1/employees/:id/timesheet?start=...&end=...
// The range defaults to today so far.
func (h *TimesheetHandler) GetTimesheet(c *fiber.Ctx) error {
	employeeID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	start, end, err := parseTimeRange(c)
	if err != nil {
		return err
	}

	hours, earnings, err := h.service.HoursAndEarnings(c.Context(), employeeID, start, end)
	if err != nil {
		return err
	}

	status, err := h.service.Status(c.Context(), employeeID)
	if err != nil {
		return err
	}

	return c.JSON(TimesheetResponse{
		EmployeeID: employeeID.String(),
		Start:      start.Format(time.RFC3339),
		End:        end.Format(time.RFC3339),
		Hours:      hours,
		Earnings:   earnings,
		Status:     string(status),
	})
}

// GetRollup GET /v1/employees/:id/rollup?days=7
func (h *TimesheetHandler) GetRollup(c *fiber.Ctx) error {
	employeeID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	days := c.QueryInt("days", 7)
	summaries, err := h.service.DailyRollup(c.Context(), employeeID, days)
	if err != nil {
		return err
	}

	return c.JSON(RollupResponse{
		EmployeeID: employeeID.String(),
		Days:       summaries,
	})
}

// parseUUIDParam reads a UUID path parameter.
func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, domain.ErrValidationFailed.WithError(errors.New(name + " must be a UUID"))
	}
	return id, nil
}

// parseTimeRange reads optional start/end query parameters (RFC 3339).
// Missing values default to the start of today and now.
func parseTimeRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now()
	year, month, day := now.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	end := now

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, domain.ErrValidationFailed.WithError(errors.New("start must be RFC 3339"))
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, domain.ErrValidationFailed.WithError(errors.New("end must be RFC 3339"))
		}
		end = parsed
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}

	return start, end, nil
}
