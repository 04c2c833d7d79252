package clockimport

import (
	"io"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

type ImportRequest struct {
	// SourceID identifies the clock terminal; NSRs are unique per source.
	SourceID   string    `json:"source_id" validate:"required,max=50"`
	FileName   string    `json:"-" validate:"required"`
	FileSize   int64     `json:"-"`
	File       io.Reader `json:"-"`
	UploadedBy string    `json:"-"`
}

// MaxFileSize bounds uploaded clock files.
const MaxFileSize = 20 << 20

func (r *ImportRequest) Validate() error {
	errs := validator.Struct(r)
	if r.File == nil {
		errs = append(errs, validator.ValidationError{Field: "file", Message: "file is required"})
	}
	if r.FileSize > MaxFileSize {
		errs = append(errs, validator.ValidationError{Field: "file", Message: "file must not exceed 20MB"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ImportResult struct {
	FileName       string      `json:"file_name"`
	SourceID       string      `json:"source_id"`
	CompanyTaxID   *string     `json:"company_tax_id,omitempty"`
	CompanyName    *string     `json:"company_name,omitempty"`
	ExpectedCount  int         `json:"expected_count"`
	ParsedCount    int         `json:"parsed_count"`
	ImportedCount  int         `json:"imported_count"`
	DuplicateCount int         `json:"duplicate_count"`
	Errors         []LineError `json:"errors"`
	Warnings       []LineError `json:"warnings"`
	ArchiveKey     *string     `json:"archive_key,omitempty"`
	Success        bool        `json:"success"`
}

type ValidationResult struct {
	FileName        string   `json:"file_name"`
	Valid           bool     `json:"valid"`
	TotalLines      int      `json:"total_lines"`
	TimeRecordCount int      `json:"time_record_count"`
	TrailerCount    *int     `json:"trailer_count,omitempty"`
	Problems        []string `json:"problems"`
}

// NewValidationResult summarizes the framing of doc.
func NewValidationResult(fileName string, doc *Document) ValidationResult {
	problems := doc.Structure()
	if problems == nil {
		problems = []string{}
	}
	return ValidationResult{
		FileName:        fileName,
		Valid:           len(problems) == 0,
		TotalLines:      doc.Lines,
		TimeRecordCount: doc.PunchLines,
		TrailerCount:    doc.TrailerCount,
		Problems:        problems,
	}
}
