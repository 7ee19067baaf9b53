// Package timesheet turns the attendance ledger into worked hours,
// earnings and day-by-day rollups.
package timesheet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veriface/punchclock/internal/domain"
	"github.com/veriface/punchclock/internal/metrics"
	"github.com/veriface/punchclock/internal/repository"
)

// dayFormat labels rollup buckets.
const dayFormat = "2006-01-02"

// Service owns the attendance state machine. Toggle is serialized per
// employee so two concurrent punches can never both read the same
// "last status" and append the same flipped value.
type Service struct {
	attendance repository.AttendanceRepositoryInterface
	employees  repository.EmployeeRepositoryInterface
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// now is swappable for tests.
	now func() time.Time

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewService creates a timesheet service.
func NewService(
	attendance repository.AttendanceRepositoryInterface,
	employees repository.EmployeeRepositoryInterface,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		attendance: attendance,
		employees:  employees,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

// employeeLock returns the mutex serializing toggles for one employee.
func (s *Service) employeeLock(employeeID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[employeeID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[employeeID] = lock
	}
	return lock
}

// Toggle flips the employee's clock status and appends the new event.
// It is unconditional: no transition is ever rejected, availability of
// the punch beats strict state-machine enforcement.
func (s *Service) Toggle(ctx context.Context, employeeID uuid.UUID) (domain.ClockStatus, error) {
	lock := s.employeeLock(employeeID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.Status(ctx, employeeID)
	if err != nil {
		return "", err
	}

	event := &domain.AttendanceEvent{
		EmployeeID: employeeID,
		Status:     current.Toggled(),
		Timestamp:  s.now(),
	}
	if err := s.attendance.Append(ctx, event); err != nil {
		return "", fmt.Errorf("append attendance event: %w", err)
	}

	s.logger.Info("clock toggled",
		slog.String("employee_id", employeeID.String()),
		slog.String("status", string(event.Status)))
	s.metrics.Toggles.WithLabelValues(string(event.Status)).Inc()

	return event.Status, nil
}

// Status derives the employee's current clock state from the last
// ledger event. An empty ledger means clocked out.
func (s *Service) Status(ctx context.Context, employeeID uuid.UUID) (domain.ClockStatus, error) {
	last, err := s.attendance.LastByEmployee(ctx, employeeID)
	if err != nil {
		return "", fmt.Errorf("read last attendance event: %w", err)
	}
	if last == nil {
		return domain.ClockedOut, nil
	}
	return last.Status, nil
}

// HoursInRange replays the employee's events within [start, end] and
// sums the closed in/out intervals. An interval still open at the end
// of the range is extended to the current time for a live query (range
// end at or past now) and excluded from a bounded historical one,
// since it presumably continues past the report boundary.
func (s *Service) HoursInRange(ctx context.Context, employeeID uuid.UUID, start, end time.Time) (float64, error) {
	events, err := s.attendance.ListByEmployeeInRange(ctx, employeeID, start, end)
	if err != nil {
		return 0, fmt.Errorf("list attendance events: %w", err)
	}

	now := s.now()
	live := !end.Before(now)
	return sumHours(events, now, live), nil
}

// HoursAndEarnings reports worked hours in the range and their value at
// the employee's current hourly rate.
func (s *Service) HoursAndEarnings(ctx context.Context, employeeID uuid.UUID, start, end time.Time) (float64, float64, error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return 0, 0, err
	}

	hours, err := s.HoursInRange(ctx, employeeID, start, end)
	if err != nil {
		return 0, 0, err
	}

	return hours, hours * employee.HourlyRate, nil
}

// DailyRollup buckets the last days calendar days (today included)
// and applies the interval aggregation independently per day. Only the
// current day's open interval is extended to now.
func (s *Service) DailyRollup(ctx context.Context, employeeID uuid.UUID, days int) ([]domain.DaySummary, error) {
	if days <= 0 {
		return nil, domain.ErrInvalidRange
	}

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := startOfDay(now)
	rangeStart := today.AddDate(0, 0, -(days - 1))

	events, err := s.attendance.ListByEmployeeInRange(ctx, employeeID, rangeStart, now)
	if err != nil {
		return nil, fmt.Errorf("list attendance events: %w", err)
	}

	summaries := make([]domain.DaySummary, 0, days)
	for i := 0; i < days; i++ {
		dayStart := rangeStart.AddDate(0, 0, i)
		dayEnd := dayStart.AddDate(0, 0, 1)
		isToday := dayStart.Equal(today)

		hours := sumHours(eventsInWindow(events, dayStart, dayEnd), now, isToday)
		summaries = append(summaries, domain.DaySummary{
			Day:      dayStart.Format(dayFormat),
			Hours:    hours,
			Earnings: hours * employee.HourlyRate,
		})
	}

	return summaries, nil
}

// sumHours runs the open-interval replay over time-ordered events.
// A clocked-in event sets the open marker, silently discarding any
// earlier unmatched one; a clocked-out event closes it; a stray out is
// ignored. When live, an interval still open at the end accrues up to
// now.
func sumHours(events []domain.AttendanceEvent, now time.Time, live bool) float64 {
	var total time.Duration
	var open *time.Time

	for i := range events {
		event := &events[i]
		switch event.Status {
		case domain.ClockedIn:
			ts := event.Timestamp
			open = &ts
		case domain.ClockedOut:
			if open != nil {
				total += event.Timestamp.Sub(*open)
				open = nil
			}
		}
	}

	if open != nil && live && now.After(*open) {
		total += now.Sub(*open)
	}

	return total.Hours()
}

// eventsInWindow filters time-ordered events to [start, end).
func eventsInWindow(events []domain.AttendanceEvent, start, end time.Time) []domain.AttendanceEvent {
	var window []domain.AttendanceEvent
	for _, event := range events {
		if event.Timestamp.Before(start) || !event.Timestamp.Before(end) {
			continue
		}
		window = append(window, event)
	}
	return window
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
