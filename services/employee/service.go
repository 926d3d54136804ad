// Package employee serves the employee directory used by machine clients and admins.
package employee

import (
	"context"
	"fmt"
	"time"

	employeeRepo "assetdesk/database/repository/employee"
	"assetdesk/models"
	"assetdesk/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	cachePrefix = "employees:"
	listKey     = "all"
	ListTTL     = 300 * time.Second
)

type EmployeeService interface {
	List(ctx context.Context) ([]models.Employee, error)
	UpdateRole(ctx context.Context, id string, role models.Role) error
}

// DefaultEmployeeService is the production implementation.
type DefaultEmployeeService struct {
	repo   employeeRepo.EmployeeRepository
	cache  *utils.JSONCache
	logger *zap.Logger
}

func NewEmployeeService(repo employeeRepo.EmployeeRepository, cache *utils.JSONCache, logger *zap.Logger) *DefaultEmployeeService {
	return &DefaultEmployeeService{repo: repo, cache: cache, logger: logger}
}

// List returns every employee ordered by name, served from cache when fresh.
// Cache failures degrade to a direct read.
func (s *DefaultEmployeeService) List(ctx context.Context) ([]models.Employee, error) {
	var cached []models.Employee
	hit, err := s.cache.Get(ctx, listKey, &cached)
	if err != nil {
		s.logger.Warn("employee cache read failed", zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	employees, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	if err := s.cache.Set(ctx, listKey, employees); err != nil {
		s.logger.Warn("employee cache write failed", zap.Error(err))
	}
	return employees, nil
}

// UpdateRole changes an employee's role. Existing sessions keep the role they
// were issued with until they end.
func (s *DefaultEmployeeService) UpdateRole(ctx context.Context, id string, role models.Role) error {
	if !role.Valid() {
		return utils.ValidationError("role must be user or admin")
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, listKey); err != nil {
		s.logger.Warn("employee cache invalidation failed", zap.Error(err))
	}
	s.logger.Info("employee role updated", zap.String("employeeID", id), zap.String("role", string(role)))
	return nil
}

// NewListCache returns the cache backing List.
func NewListCache(client redis.Cmdable) *utils.JSONCache {
	return utils.NewJSONCache(client, cachePrefix, ListTTL)
}
