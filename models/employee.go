package models

// Role is the authorization level of an employee.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Employee is the identity record sessions and chat resolve against.
type Employee struct {
	ID           string `bson:"id" json:"id"`
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	DepartmentID string `bson:"department_id,omitempty" json:"departmentId,omitempty"`
	Role         Role   `bson:"role,omitempty" json:"role"`
}
