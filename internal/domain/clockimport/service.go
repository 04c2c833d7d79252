package clockimport

import "context"

// ClockImportService ingests clock-terminal exports. A bad line never fails
// the import; only reading the file does.
type ClockImportService interface {
	Import(ctx context.Context, tenantID string, req ImportRequest) (ImportResult, error)
	Validate(ctx context.Context, req ImportRequest) (ValidationResult, error)
}
