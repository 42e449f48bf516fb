package handler

import (
	"github.com/gin-gonic/gin"

	appworkspace "github.com/smartspace/backend/internal/application/workspace"
)

// EmployeeHandler serves the employee directory
type EmployeeHandler struct {
	BaseHandler
	employees *appworkspace.EmployeeService
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(employees *appworkspace.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// List searches employees
// @Summary      List employees
// @Description  Search the employee directory
// @Tags         employees
// @ID           listEmployees
// @Produce      json
// @Param        search query string false "Matches name, email or department"
// @Param        department query string false "Department"
// @Param        status query string false "Employee status" Enums(active, inactive, remote, on_leave)
// @Param        limit query int false "Maximum rows" minimum(1) maximum(100)
// @Param        sort_by query string false "Sort column"
// @Param        sort_order query string false "Sort order" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]workspace.Employee}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	var q appworkspace.ListEmployeesQuery
	if !h.BindQuery(c, &q) {
		return
	}

	list, err := h.employees.List(c.Request.Context(), companyID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list.Employees, gin.H{"total": list.Total, "returned": len(list.Employees)})
}

// Get returns one employee
// @Summary      Get employee
// @Description  Return one employee of the caller's company
// @Tags         employees
// @ID           getEmployeeById
// @Produce      json
// @Param        id path string true "Employee ID"
// @Success      200 {object} dto.Response{data=workspace.Employee}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.employees.Get(c.Request.Context(), companyID(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, employee)
}

// Create adds an employee
// @Summary      Create employee
// @Description  Add an employee; granted permissions cannot exceed the caller's
// @Tags         employees
// @ID           createEmployee
// @Accept       json
// @Produce      json
// @Param        request body appworkspace.CreateEmployeeRequest true "Employee"
// @Success      201 {object} dto.Response{data=workspace.Employee}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req appworkspace.CreateEmployeeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CallerPermissions = callerPermissions(c)

	employee, err := h.employees.Create(c.Request.Context(), companyID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, employee)
}

// Update changes the given fields
// @Summary      Update employee
// @Description  Change the given fields; role changes need admin
// @Tags         employees
// @ID           updateEmployee
// @Accept       json
// @Produce      json
// @Param        id path string true "Employee ID"
// @Param        request body appworkspace.UpdateEmployeeRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=workspace.Employee}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /employees/{id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req appworkspace.UpdateEmployeeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CallerPermissions = callerPermissions(c)

	employee, err := h.employees.Update(c.Request.Context(), companyID(c), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, employee)
}

// Delete removes an employee and returns it
// @Summary      Delete employee
// @Description  Remove an employee and return the removed record
// @Tags         employees
// @ID           deleteEmployee
// @Produce      json
// @Param        id path string true "Employee ID"
// @Success      200 {object} dto.Response{data=object}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /employees/{id} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	employee, err := h.employees.Delete(c.Request.Context(), companyID(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Employee deleted successfully", "employee": employee})
}
