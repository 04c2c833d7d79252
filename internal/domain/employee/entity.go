package employee

// Employee is the slice of the HR employee record the timesheet core needs.
type Employee struct {
	ID           string
	TenantID     string
	UserID       *string
	ManagerID    *string
	DepartmentID *string
	// ExternalID is the token printed by clock terminals (PIS).
	ExternalID *string
	FullName   string
	Active     bool
}

// Contacts carries the user identities notified about an employee's requests.
type Contacts struct {
	EmployeeUserID *string
	ManagerUserID  *string
}
