package handlers

import (
	"assetdesk/middleware"
)

// HandlerBundle groups the endpoint handlers and the guards routes need.
type HandlerBundle struct {
	Sessions middleware.SessionResolver
	APIToken string

	AuthHandler     *AuthHandler
	ChatHandler     *ChatHandler
	EmployeeHandler *EmployeeHandler
	HealthHandler   *HealthHandler
}
