package handlers

import (
	"net/http"

	"assetdesk/models"
	"assetdesk/services/employee"
	"assetdesk/utils"

	"github.com/gin-gonic/gin"
)

// EmployeeHandler exposes the employee directory to machine clients and admins.
type EmployeeHandler struct {
	EmployeeService employee.EmployeeService
}

func NewEmployeeHandler(svc employee.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{EmployeeService: svc}
}

// ListEmployeesHandler handles GET /api/employees.
func (h *EmployeeHandler) ListEmployeesHandler(c *gin.Context) {
	employees, err := h.EmployeeService.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employees)
}

// UpdateRoleHandler handles PUT /admin/employees/:id/role.
func (h *EmployeeHandler) UpdateRoleHandler(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.ValidationError("role is required"))
		return
	}

	id := c.Param("id")
	if err := h.EmployeeService.UpdateRole(c.Request.Context(), id, models.Role(req.Role)); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role updated", "id": id, "role": req.Role})
}
