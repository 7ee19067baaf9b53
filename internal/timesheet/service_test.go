package timesheet

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriface/punchclock/internal/domain"
	"github.com/veriface/punchclock/internal/metrics"
)

// fakeLedger is an in-memory, append-only attendance store.
type fakeLedger struct {
	mu     sync.Mutex
	events []domain.AttendanceEvent
}

func (f *fakeLedger) Append(_ context.Context, event *domain.AttendanceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeLedger) LastByEmployee(_ context.Context, employeeID uuid.UUID) (*domain.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].EmployeeID == employeeID {
			event := f.events[i]
			return &event, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) ListByEmployeeInRange(_ context.Context, employeeID uuid.UUID, start, end time.Time) ([]domain.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AttendanceEvent
	for _, event := range f.events {
		if event.EmployeeID != employeeID {
			continue
		}
		if event.Timestamp.Before(start) || event.Timestamp.After(end) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

// fakeEmployees serves a single employee.
type fakeEmployees struct {
	employee domain.Employee
}

func (f *fakeEmployees) Create(_ context.Context, _ *domain.Employee) error { return nil }

func (f *fakeEmployees) GetByID(_ context.Context, id uuid.UUID) (*domain.Employee, error) {
	if id != f.employee.ID {
		return nil, domain.ErrEmployeeNotFound
	}
	employee := f.employee
	return &employee, nil
}

func (f *fakeEmployees) List(_ context.Context) ([]domain.Employee, error) {
	return []domain.Employee{f.employee}, nil
}

func (f *fakeEmployees) UpdateHourlyRate(_ context.Context, _ uuid.UUID, _ float64) error {
	return nil
}

func (f *fakeEmployees) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func newTestService(t *testing.T, rate float64) (*Service, *fakeLedger, uuid.UUID) {
	t.Helper()

	employeeID := uuid.New()
	ledger := &fakeLedger{}
	employees := &fakeEmployees{employee: domain.Employee{ID: employeeID, Name: "Ada", HourlyRate: rate}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewService(ledger, employees, logger, metrics.New(prometheus.NewRegistry()))
	return service, ledger, employeeID
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestService_ToggleAlternates(t *testing.T) {
	service, _, employeeID := newTestService(t, 20)
	ctx := context.Background()

	status, err := service.Status(ctx, employeeID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClockedOut, status, "empty ledger means clocked out")

	for i := 1; i <= 6; i++ {
		status, err = service.Toggle(ctx, employeeID)
		require.NoError(t, err)

		if i%2 == 1 {
			assert.Equal(t, domain.ClockedIn, status, "toggle %d", i)
		} else {
			assert.Equal(t, domain.ClockedOut, status, "toggle %d", i)
		}
	}
}

func TestService_ConcurrentTogglesStayAlternating(t *testing.T) {
	service, ledger, employeeID := newTestService(t, 20)
	ctx := context.Background()

	const toggles = 20
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Toggle(ctx, employeeID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, ledger.events, toggles)
	for i, event := range ledger.events {
		want := domain.ClockedIn
		if i%2 == 1 {
			want = domain.ClockedOut
		}
		assert.Equal(t, want, event.Status, "event %d", i)
	}
}

func TestService_HoursInRange(t *testing.T) {
	now := at(t, "2026-02-10T20:00:00Z")

	tests := []struct {
		name      string
		events    []domain.AttendanceEvent
		start     string
		end       string
		wantHours float64
	}{
		{
			name: "clean in then out pair",
			events: []domain.AttendanceEvent{
				{Status: domain.ClockedIn, Timestamp: at(t, "2026-02-10T09:00:00Z")},
				{Status: domain.ClockedOut, Timestamp: at(t, "2026-02-10T17:00:00Z")},
			},
			start:     "2026-02-10T00:00:00Z",
			end:       "2026-02-10T23:59:59Z",
			wantHours: 8.0,
		},
		{
			name: "stray leading out contributes nothing",
			events: []domain.AttendanceEvent{
				{Status: domain.ClockedOut, Timestamp: at(t, "2026-02-10T08:00:00Z")},
			},
			start:     "2026-02-10T00:00:00Z",
			end:       "2026-02-10T23:59:59Z",
			wantHours: 0,
		},
		{
			name: "duplicate in discards the earlier marker",
			events: []domain.AttendanceEvent{
				{Status: domain.ClockedIn, Timestamp: at(t, "2026-02-10T09:00:00Z")},
				{Status: domain.ClockedIn, Timestamp: at(t, "2026-02-10T10:00:00Z")},
				{Status: domain.ClockedOut, Timestamp: at(t, "2026-02-10T12:00:00Z")},
			},
			start:     "2026-02-10T00:00:00Z",
			end:       "2026-02-10T23:59:59Z",
			wantHours: 2.0,
		},
		{
			name: "open interval in a live query accrues to now",
			events: []domain.AttendanceEvent{
				{Status: domain.ClockedIn, Timestamp: at(t, "2026-02-10T18:00:00Z")},
			},
			start:     "2026-02-10T00:00:00Z",
			end:       "2026-02-10T23:59:59Z", // past now, so live
			wantHours: 2.0,
		},
		{
			name: "open interval in a historical query is excluded",
			events: []domain.AttendanceEvent{
				{Status: domain.ClockedIn, Timestamp: at(t, "2026-02-08T18:00:00Z")},
			},
			start:     "2026-02-08T00:00:00Z",
			end:       "2026-02-08T23:59:59Z", // bounded, ends before now
			wantHours: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, ledger, employeeID := newTestService(t, 20)
			service.now = func() time.Time { return now }

			for _, event := range tt.events {
				event.EmployeeID = employeeID
				require.NoError(t, ledger.Append(context.Background(), &event))
			}

			hours, err := service.HoursInRange(context.Background(), employeeID, at(t, tt.start), at(t, tt.end))
			require.NoError(t, err)
			assert.InDelta(t, tt.wantHours, hours, 1e-9)
		})
	}
}

func TestService_HoursAndEarnings(t *testing.T) {
	service, ledger, employeeID := newTestService(t, 12.5)
	service.now = func() time.Time { return at(t, "2026-02-10T20:00:00Z") }

	for _, event := range []domain.AttendanceEvent{
		{EmployeeID: employeeID, Status: domain.ClockedIn, Timestamp: at(t, "2026-02-10T09:00:00Z")},
		{EmployeeID: employeeID, Status: domain.ClockedOut, Timestamp: at(t, "2026-02-10T17:00:00Z")},
	} {
		event := event
		require.NoError(t, ledger.Append(context.Background(), &event))
	}

	hours, earnings, err := service.HoursAndEarnings(context.Background(), employeeID,
		at(t, "2026-02-10T00:00:00Z"), at(t, "2026-02-10T23:59:59Z"))

	require.NoError(t, err)
	assert.InDelta(t, 8.0, hours, 1e-9)
	assert.InDelta(t, 100.0, earnings, 1e-9)
}

func TestService_HoursAndEarningsUnknownEmployee(t *testing.T) {
	service, _, _ := newTestService(t, 12.5)

	_, _, err := service.HoursAndEarnings(context.Background(), uuid.New(),
		at(t, "2026-02-10T00:00:00Z"), at(t, "2026-02-10T23:59:59Z"))

	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
}

func TestService_DailyRollup(t *testing.T) {
	now := at(t, "2026-02-10T12:00:00Z")
	service, ledger, employeeID := newTestService(t, 10)
	service.now = func() time.Time { return now }

	for _, event := range []domain.AttendanceEvent{
		// Yesterday: a clean 8 hour day.
		{EmployeeID: employeeID, Status: domain.ClockedIn, Timestamp: at(t, "2026-02-09T09:00:00Z")},
		{EmployeeID: employeeID, Status: domain.ClockedOut, Timestamp: at(t, "2026-02-09T17:00:00Z")},
		// Today: clocked in 4 hours ago, still open.
		{EmployeeID: employeeID, Status: domain.ClockedIn, Timestamp: at(t, "2026-02-10T08:00:00Z")},
	} {
		event := event
		require.NoError(t, ledger.Append(context.Background(), &event))
	}

	summaries, err := service.DailyRollup(context.Background(), employeeID, 3)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "2026-02-08", summaries[0].Day)
	assert.Zero(t, summaries[0].Hours)

	assert.Equal(t, "2026-02-09", summaries[1].Day)
	assert.InDelta(t, 8.0, summaries[1].Hours, 1e-9)
	assert.InDelta(t, 80.0, summaries[1].Earnings, 1e-9)

	// Today's open interval is extended to now; past days' would not be.
	assert.Equal(t, "2026-02-10", summaries[2].Day)
	assert.InDelta(t, 4.0, summaries[2].Hours, 1e-9)
	assert.InDelta(t, 40.0, summaries[2].Earnings, 1e-9)
}

func TestService_DailyRollupRejectsNonPositiveDays(t *testing.T) {
	service, _, employeeID := newTestService(t, 10)

	_, err := service.DailyRollup(context.Background(), employeeID, 0)

	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}
