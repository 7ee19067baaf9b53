package handler

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/veriface/punchclock/internal/domain"
	"github.com/veriface/punchclock/internal/repository"
	"github.com/veriface/punchclock/internal/vision"
)

const maxImageSize = 10 * 1024 * 1024 // 10MB

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// AuthService exchanges admin credentials for a token.
type AuthService interface {
	Login(username, password string) (string, error)
}

// TemplateInvalidator drops the cached template index after enrollment
// changes.
type TemplateInvalidator interface {
	Invalidate()
}

// AdminHandler serves employee management: enrollment, rates, raw
// attendance and payroll.
type AdminHandler struct {
	auth       AuthService
	employees  repository.EmployeeRepositoryInterface
	templates  repository.TemplateRepositoryInterface
	attendance repository.AttendanceRepositoryInterface
	timesheet  TimesheetService
	provider   vision.Provider
	store      TemplateInvalidator
	logger     *slog.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(
	auth AuthService,
	employees repository.EmployeeRepositoryInterface,
	templates repository.TemplateRepositoryInterface,
	attendance repository.AttendanceRepositoryInterface,
	timesheet TimesheetService,
	provider vision.Provider,
	store TemplateInvalidator,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		auth:       auth,
		employees:  employees,
		templates:  templates,
		attendance: attendance,
		timesheet:  timesheet,
		provider:   provider,
		store:      store,
		logger:     logger,
	}
}

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login POST /v1/admin/login
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(LoginResponse{Token: token})
}

// CreateEmployeeRequest is the enrollment payload.
type CreateEmployeeRequest struct {
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourly_rate"`
}

// UpdateRateRequest changes an employee's pay rate.
type UpdateRateRequest struct {
	HourlyRate float64 `json:"hourly_rate"`
}

// CreateEmployee POST /v1/admin/employees
func (h *AdminHandler) CreateEmployee(c *fiber.Ctx) error {
	var req CreateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}
	if req.HourlyRate < 0 {
		return domain.ErrValidationFailed.WithError(errors.New("hourly_rate must not be negative"))
	}

	employee := &domain.Employee{
		ID:         uuid.New(),
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
	}
	if err := h.employees.Create(c.Context(), employee); err != nil {
		return err
	}

	h.logger.Info("employee created",
		slog.String("employee_id", employee.ID.String()),
		slog.String("name", employee.Name))

	return c.Status(fiber.StatusCreated).JSON(employee)
}

// ListEmployees GET /v1/admin/employees
func (h *AdminHandler) ListEmployees(c *fiber.Ctx) error {
	employees, err := h.employees.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"employees": employees})
}

// UpdateRate PUT /v1/admin/employees/:id/rate
func (h *AdminHandler) UpdateRate(c *fiber.Ctx) error {
	employeeID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateRateRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if req.HourlyRate < 0 {
		return domain.ErrValidationFailed.WithError(errors.New("hourly_rate must not be negative"))
	}

	if err := h.employees.UpdateHourlyRate(c.Context(), employeeID, req.HourlyRate); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteEmployee DELETE /v1/admin/employees/:id
// The schema cascades templates and events; the cached template index
// must be dropped as well.
func (h *AdminHandler) DeleteEmployee(c *fiber.Ctx) error {
	employeeID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.employees.Delete(c.Context(), employeeID); err != nil {
		return err
	}
	h.store.Invalidate()

	h.logger.Info("employee deleted", slog.String("employee_id", employeeID.String()))
	return c.SendStatus(fiber.StatusNoContent)
}

// EnrollResponse reports a newly stored face template.
type EnrollResponse struct {
	TemplateID string `json:"template_id"`
	EmployeeID string `json:"employee_id"`
	CreatedAt  string `json:"created_at"`
}

// EnrollFace POST /v1/admin/employees/:id/faces - store a face template
// from an uploaded photo. Exactly one face must be visible.
func (h *AdminHandler) EnrollFace(c *fiber.Ctx) error {
	employeeID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	regions, err := h.provider.LocateFaces(c.Context(), imageBytes)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	if len(regions) == 0 {
		return domain.ErrNoFaceDetected
	}
	if len(regions) > 1 {
		return domain.ErrMultipleFaces
	}

	embeddings, err := h.provider.Embed(c.Context(), imageBytes, regions)
	if err != nil || len(embeddings) == 0 {
		return domain.ErrInternal.WithError(err)
	}

	template, err := h.templates.Create(c.Context(), employeeID, embeddings[0])
	if err != nil {
		return err
	}
	h.store.Invalidate()

	h.logger.Info("face enrolled",
		slog.String("employee_id", employeeID.String()),
		slog.String("template_id", template.ID.String()))

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		TemplateID: template.ID.String(),
		EmployeeID: employeeID.String(),
		CreatedAt:  template.CreatedAt.Format(time.RFC3339),
	})
}

// DeleteTemplate DELETE /v1/admin/faces/:id
func (h *AdminHandler) DeleteTemplate(c *fiber.Ctx) error {
	templateID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.templates.Delete(c.Context(), templateID); err != nil {
		return err
	}
	h.store.Invalidate()

	return c.SendStatus(fiber.StatusNoContent)
}

// AttendanceResponse is the raw event log for one employee.
type AttendanceResponse struct {
	EmployeeID string                   `json:"employee_id"`
	Events     []domain.AttendanceEvent `json:"events"`
}

// ListAttendance GET /v1/admin/employees/:id/attendance - raw ledger
// in a range, defaulting to today.
func (h *AdminHandler) ListAttendance(c *fiber.Ctx) error {
	employeeID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	start, end, err := parseTimeRange(c)
	if err != nil {
		return err
	}

	events, err := h.attendance.ListByEmployeeInRange(c.Context(), employeeID, start, end)
	if err != nil {
		return err
	}

	return c.JSON(AttendanceResponse{
		EmployeeID: employeeID.String(),
		Events:     events,
	})
}

// PayrollRow is one employee's pay for the queried range.
type PayrollRow struct {
	Employee EmployeeResponse `json:"employee"`
	Hours    float64          `json:"hours"`
	Earnings float64          `json:"earnings"`
}

// PayrollResponse is the full payroll report.
type PayrollResponse struct {
	Start string       `json:"start"`
	End   string       `json:"end"`
	Rows  []PayrollRow `json:"rows"`
}

// Payroll GET /v1/admin/payroll?start=...&end=...
func (h *AdminHandler) Payroll(c *fiber.Ctx) error {
	start, end, err := parseTimeRange(c)
	if err != nil {
		return err
	}

	employees, err := h.employees.List(c.Context())
	if err != nil {
		return err
	}

	rows := make([]PayrollRow, 0, len(employees))
	for _, employee := range employees {
		hours, earnings, err := h.timesheet.HoursAndEarnings(c.Context(), employee.ID, start, end)
		if err != nil {
			return err
		}
		rows = append(rows, PayrollRow{
			Employee: EmployeeResponse{ID: employee.ID.String(), Name: employee.Name},
			Hours:    hours,
			Earnings: earnings,
		})
	}

	return c.JSON(PayrollResponse{
		Start: start.Format(time.RFC3339),
		End:   end.Format(time.RFC3339),
		Rows:  rows,
	})
}

// extractAndValidateImage pulls the uploaded photo out of the
// multipart form.
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	if file.Size == 0 || file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
