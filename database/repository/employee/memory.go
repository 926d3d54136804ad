package employeeRepo

import (
	"context"
	"sort"
	"sync"

	"assetdesk/models"
	"assetdesk/utils"
)

// MemoryEmployeeRepo is an in-process EmployeeRepository.
type MemoryEmployeeRepo struct {
	mu   sync.RWMutex
	byID map[string]models.Employee
}

// NewMemoryEmployeeRepo returns a repository holding seed.
func NewMemoryEmployeeRepo(seed ...models.Employee) *MemoryEmployeeRepo {
	r := &MemoryEmployeeRepo{byID: make(map[string]models.Employee, len(seed))}
	for _, e := range seed {
		r.byID[e.ID] = e
	}
	return r
}

func (r *MemoryEmployeeRepo) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *MemoryEmployeeRepo) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.byID {
		if e.Email == email {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (r *MemoryEmployeeRepo) GetByIDs(ctx context.Context, ids []string) (map[string]models.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]models.Employee, len(ids))
	for _, id := range ids {
		if e, ok := r.byID[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func (r *MemoryEmployeeRepo) List(ctx context.Context) ([]models.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Employee, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryEmployeeRepo) UpdateRole(ctx context.Context, id string, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return utils.NotFound("employee not found")
	}
	e.Role = role
	r.byID[id] = e
	return nil
}
