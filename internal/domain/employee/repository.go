package employee

import "context"

// Directory resolves employees owned by the HR employee service.
type Directory interface {
	// ResolveEmployeeByExternalID maps a clock-terminal token to an employee id.
	ResolveEmployeeByExternalID(ctx context.Context, tenantID string, token string) (string, error)

	GetEmployee(ctx context.Context, tenantID string, employeeID string) (Employee, error)
}

// ResolveContacts looks up the employee's own user and their manager's user.
// A missing manager is not an error.
func ResolveContacts(ctx context.Context, dir Directory, tenantID, employeeID string) (Contacts, error) {
	emp, err := dir.GetEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return Contacts{}, err
	}

	contacts := Contacts{EmployeeUserID: emp.UserID}
	if emp.ManagerID == nil {
		return contacts, nil
	}

	manager, err := dir.GetEmployee(ctx, tenantID, *emp.ManagerID)
	if err != nil {
		return contacts, nil
	}
	contacts.ManagerUserID = manager.UserID
	return contacts, nil
}
