package handler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/veriface/punchclock/internal/domain"
	"github.com/veriface/punchclock/internal/recognition"
	"github.com/veriface/punchclock/internal/repository"
)

// Verifier runs one verification session.
type Verifier interface {
	Run(ctx context.Context) recognition.Result
}

// AttendanceToggler flips an employee's clock status.
type AttendanceToggler interface {
	Toggle(ctx context.Context, employeeID uuid.UUID) (domain.ClockStatus, error)
}

// ClockHandler drives the kiosk's single button: verify whoever is in
// front of the camera and toggle their clock status.
type ClockHandler struct {
	verifier   Verifier
	attendance AttendanceToggler
	employees  repository.EmployeeRepositoryInterface
	previews   *PreviewStore
	logger     *slog.Logger

	// The camera is a serially-reusable device; one session at a time.
	mu sync.Mutex
}

// NewClockHandler creates a clock handler.
func NewClockHandler(
	verifier Verifier,
	attendance AttendanceToggler,
	employees repository.EmployeeRepositoryInterface,
	previews *PreviewStore,
	logger *slog.Logger,
) *ClockHandler {
	return &ClockHandler{
		verifier:   verifier,
		attendance: attendance,
		employees:  employees,
		previews:   previews,
		logger:     logger,
	}
}

// EmployeeResponse is the public shape of an employee.
type EmployeeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RegionResponse is a face bounding box in the preview frame's
// coordinate space.
type RegionResponse struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// ClockResponse is the outcome of one punch attempt. A failed
// verification is a 200 with matched=false, not an error.
type ClockResponse struct {
	Matched        bool              `json:"matched"`
	LivenessPassed bool              `json:"liveness_passed"`
	Employee       *EmployeeResponse `json:"employee,omitempty"`
	Status         string            `json:"status,omitempty"`
	PreviewURL     string            `json:"preview_url,omitempty"`
	Region         *RegionResponse   `json:"region,omitempty"`
}

// Clock POST /v1/clock - verify and toggle
func (h *ClockHandler) Clock(c *fiber.Ctx) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.previews.CleanStale()

	result := h.verifier.Run(c.Context())

	response := ClockResponse{
		Matched:        result.Matched,
		LivenessPassed: result.LivenessPassed,
	}

	if result.Preview != nil {
		name, err := h.previews.Save(result.Preview)
		if err != nil {
			h.logger.Warn("preview not saved", slog.String("error", err.Error()))
		} else {
			response.PreviewURL = "/previews/" + name
		}
	}

	if !result.Matched {
		return c.JSON(response)
	}

	employee, err := h.employees.GetByID(c.Context(), result.EmployeeID)
	if err != nil {
		return err
	}

	status, err := h.attendance.Toggle(c.Context(), result.EmployeeID)
	if err != nil {
		return err
	}

	response.Employee = &EmployeeResponse{
		ID:   employee.ID.String(),
		Name: employee.Name,
	}
	response.Status = string(status)
	if result.Region != nil {
		response.Region = &RegionResponse{
			Top:    result.Region.Top,
			Right:  result.Region.Right,
			Bottom: result.Region.Bottom,
			Left:   result.Region.Left,
		}
	}

	return c.JSON(response)
}
