package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/employee-directory/internal/api/dto"
	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/service"
	apperrors "github.com/spec-kit/employee-directory/pkg/util/errorutil"
)

// Directory is the record store as seen by the HTTP layer.
type Directory interface {
	List() []domain.Employee
	Filter(department string) []domain.Employee
	Search(term string) domain.SearchResult
	Add(ctx context.Context, record domain.Employee) (domain.MutationResult, error)
	Sort(ctx context.Context) domain.MutationResult
	Refresh(ctx context.Context) ([]domain.Employee, error)
}

// EmployeesHandler forwards directory intents to the record store.
type EmployeesHandler struct {
	directory Directory
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(directory Directory) *EmployeesHandler {
	return &EmployeesHandler{directory: directory}
}

// ListEmployees GET /employees, optionally narrowed by ?department=.
func (h *EmployeesHandler) ListEmployees(c *fiber.Ctx) error {
	employees := h.directory.Filter(c.Query("department"))
	return c.JSON(fiber.Map{"data": collection(employees)})
}

// AddEmployee POST /employees.
func (h *EmployeesHandler) AddEmployee(c *fiber.Ctx) error {
	var req dto.CreateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	// Form values alias fasthttp's pooled request buffer; the record outlives it.
	result, err := h.directory.Add(c.UserContext(), domain.Employee{
		Name:       utils.CopyString(req.Name),
		Department: utils.CopyString(req.Department),
		Role:       utils.CopyString(req.Role),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(mutationResponse(result))
}

// SortEmployees POST /employees/sort.
func (h *EmployeesHandler) SortEmployees(c *fiber.Ctx) error {
	result := h.directory.Sort(c.UserContext())
	return c.JSON(mutationResponse(result))
}

// RefreshEmployees POST /employees/refresh.
func (h *EmployeesHandler) RefreshEmployees(c *fiber.Ctx) error {
	employees, err := h.directory.Refresh(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": collection(employees)})
}

// SearchEmployees GET /employees/search?name=.
func (h *EmployeesHandler) SearchEmployees(c *fiber.Ctx) error {
	result := h.directory.Search(c.Query("name"))
	resp := dto.SearchResponse{Kind: result.Kind}
	if result.Found() {
		resp.Records = employeeResponses(result.Records)
	} else {
		resp.Message = service.MessageNoMatch
	}
	return c.JSON(fiber.Map{"data": resp})
}

func mutationResponse(result domain.MutationResult) fiber.Map {
	body := fiber.Map{
		"data":      collection(result.Employees),
		"persisted": result.Persisted,
	}
	if result.Warning != "" {
		body["warning"] = result.Warning
	}
	return body
}

func collection(employees []domain.Employee) dto.CollectionResponse {
	return dto.CollectionResponse{
		Employees: employeeResponses(employees),
		Count:     len(employees),
	}
}

func employeeResponses(employees []domain.Employee) []dto.EmployeeResponse {
	resp := make([]dto.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		resp = append(resp, dto.EmployeeResponse{
			Name:       emp.Name,
			Department: emp.Department,
			Role:       emp.Role,
		})
	}
	return resp
}
