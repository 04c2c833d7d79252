package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// employeeDirectoryImpl reads the employees table replicated from the HR service.
type employeeDirectoryImpl struct {
	db *database.DB
}

func NewEmployeeDirectory(db *database.DB) employee.Directory {
	return &employeeDirectoryImpl{db: db}
}

// ResolveEmployeeByExternalID implements employee.Directory.
func (e *employeeDirectoryImpl) ResolveEmployeeByExternalID(ctx context.Context, tenantID string, token string) (string, error) {
	q := GetQuerier(ctx, e.db)

	// Terminals pad the identifier with leading zeros.
	query := `
		SELECT id
		FROM employees
		WHERE tenant_id = $1 AND is_active AND deleted_at IS NULL
		  AND (external_id = $2 OR LTRIM(external_id, '0') = LTRIM($2, '0'))
		ORDER BY (external_id = $2) DESC
		LIMIT 1
	`

	var id string
	if err := q.QueryRow(ctx, query, tenantID, token).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", employee.ErrExternalIDNotFound
		}
		return "", fmt.Errorf("failed to resolve clock identifier: %w", err)
	}
	return id, nil
}

// GetEmployee implements employee.Directory.
func (e *employeeDirectoryImpl) GetEmployee(ctx context.Context, tenantID string, employeeID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, tenant_id, user_id, manager_id, department_id, external_id, full_name, is_active
		FROM employees
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`

	var emp employee.Employee
	err := q.QueryRow(ctx, query, employeeID, tenantID).Scan(
		&emp.ID, &emp.TenantID, &emp.UserID, &emp.ManagerID, &emp.DepartmentID, &emp.ExternalID, &emp.FullName, &emp.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}
