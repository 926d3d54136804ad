package employeeRepo

import (
	"context"

	"assetdesk/models"
)

// EmployeeRepository is the identity source for OTP issuance, sessions and chat.
type EmployeeRepository interface {
	// GetByID retrieves an employee by ID. Returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	// GetByEmail retrieves an employee by email. Returns nil, nil when absent.
	GetByEmail(ctx context.Context, email string) (*models.Employee, error)
	// GetByIDs returns the employees found among ids, keyed by ID.
	GetByIDs(ctx context.Context, ids []string) (map[string]models.Employee, error)
	// List returns all employees ordered by name.
	List(ctx context.Context) ([]models.Employee, error)
	// UpdateRole changes an employee's role.
	UpdateRole(ctx context.Context, id string, role models.Role) error
}
