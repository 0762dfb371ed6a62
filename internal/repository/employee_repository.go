package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spec-kit/employee-directory/internal/domain"
)

// EmployeeRepository reads and writes the whole collection as one JSON array
// under a single key.
type EmployeeRepository interface {
	// Load returns found=false when the key has never been written.
	Load(ctx context.Context) (employees []domain.Employee, found bool, err error)
	Save(ctx context.Context, employees []domain.Employee) error
	Ping(ctx context.Context) error
}

type employeeRepository struct {
	store KeyValueStore
	key   string
}

// NewEmployeeRepository builds the repository over any KeyValueStore.
func NewEmployeeRepository(store KeyValueStore, key string) EmployeeRepository {
	return &employeeRepository{store: store, key: key}
}

func (r *employeeRepository) Load(ctx context.Context) ([]domain.Employee, bool, error) {
	raw, found, err := r.store.Get(ctx, r.key)
	if err != nil || !found {
		return nil, false, err
	}
	// JSON null decodes to a nil slice and counts as absent.
	var employees []domain.Employee
	if err := json.Unmarshal(raw, &employees); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", r.key, err)
	}
	if employees == nil {
		return nil, false, nil
	}
	return employees, true, nil
}

func (r *employeeRepository) Save(ctx context.Context, employees []domain.Employee) error {
	if employees == nil {
		employees = []domain.Employee{}
	}
	raw, err := json.Marshal(employees)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key, err)
	}
	return r.store.Set(ctx, r.key, raw)
}

func (r *employeeRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
