package clockimport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/clockimport"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/eventbus"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/service/file"
)

type ClockImportServiceImpl struct {
	tx          database.Transactor
	locker      database.Locker
	timeRecords timerecord.TimeRecordRepository
	summaryRepo summary.DailySummaryRepository
	aggregator  summary.Aggregator
	directory   employee.Directory
	fileService file.FileService
	publisher   eventbus.Publisher
	clock       clock.Clock
}

// resolvedPunch is a parsed line matched to an employee.
type resolvedPunch struct {
	clockimport.Punch
	EmployeeID string
}

// dayGroup holds the punches of one employee-day; each group commits alone.
type dayGroup struct {
	employeeID string
	date       time.Time
	punches    []resolvedPunch
}

// Import implements clockimport.ClockImportService.
func (s *ClockImportServiceImpl) Import(ctx context.Context, tenantID string, req clockimport.ImportRequest) (clockimport.ImportResult, error) {
	if err := req.Validate(); err != nil {
		return clockimport.ImportResult{}, err
	}

	data, err := readAll(req.File)
	if err != nil {
		return clockimport.ImportResult{}, err
	}

	result := clockimport.ImportResult{
		FileName: req.FileName,
		SourceID: req.SourceID,
		Errors:   []clockimport.LineError{},
		Warnings: []clockimport.LineError{},
	}

	if s.fileService != nil {
		key, err := s.fileService.ArchiveClockFile(ctx, tenantID, req.SourceID, bytes.NewReader(data), req.FileName)
		if err != nil {
			slog.Warn("failed to archive clock file", "tenant_id", tenantID, "file", req.FileName, "error", err)
		} else {
			result.ArchiveKey = &key
		}
	}

	doc, err := clockimport.Parse(bytes.NewReader(data))
	if err != nil {
		return clockimport.ImportResult{}, err
	}

	if doc.Header != nil {
		result.CompanyTaxID = &doc.Header.TaxID
		result.CompanyName = &doc.Header.CompanyName
	}
	if doc.TrailerCount != nil {
		result.ExpectedCount = *doc.TrailerCount
	}
	result.ParsedCount = len(doc.Punches)
	result.Errors = append(result.Errors, doc.Errors...)
	for _, problem := range doc.Structure() {
		result.Warnings = append(result.Warnings, clockimport.LineError{Message: problem})
	}

	groups := s.group(ctx, tenantID, doc.Punches, &result)
	for _, g := range groups {
		imported, duplicates, warnings, err := s.importGroup(ctx, tenantID, req, g)
		if err != nil {
			for _, p := range g.punches {
				result.Errors = append(result.Errors, clockimport.LineError{
					Line:    p.Line,
					Message: fmt.Sprintf("failed to import punch: %v", err),
				})
			}
			continue
		}
		result.ImportedCount += imported
		result.DuplicateCount += duplicates
		result.Warnings = append(result.Warnings, warnings...)
	}

	sort.SliceStable(result.Errors, func(i, j int) bool { return result.Errors[i].Line < result.Errors[j].Line })
	result.Success = len(result.Errors) == 0

	eventbus.PublishBestEffort(ctx, s.publisher, eventbus.NewEvent(eventbus.ClockFileImported, tenantID, "", req.SourceID, map[string]interface{}{
		"file_name":       req.FileName,
		"source_id":       req.SourceID,
		"imported_count":  result.ImportedCount,
		"duplicate_count": result.DuplicateCount,
		"error_count":     len(result.Errors),
	}))

	slog.Info("clock file imported",
		"tenant_id", tenantID,
		"source_id", req.SourceID,
		"file", req.FileName,
		"parsed", result.ParsedCount,
		"imported", result.ImportedCount,
		"duplicates", result.DuplicateCount,
		"errors", len(result.Errors),
	)
	return result, nil
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, clockimport.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read clock file: %w", err)
	}
	if len(data) > clockimport.MaxFileSize {
		return nil, validator.ValidationErrors{{Field: "file", Message: "file must not exceed 20MB"}}
	}
	return data, nil
}

// group resolves tokens and splits punches by employee-day, keeping the order
// in which days first appear. A NSR repeated inside the file is imported once
// and its later lines become warnings, so DuplicateCount only reflects punches
// already stored by an earlier import.
func (s *ClockImportServiceImpl) group(ctx context.Context, tenantID string, punches []clockimport.Punch, result *clockimport.ImportResult) []*dayGroup {
	resolved := map[string]string{}
	unresolved := map[string]error{}
	seen := map[int64]int{}

	var groups []*dayGroup
	index := map[string]*dayGroup{}

	for _, p := range punches {
		if first, ok := seen[p.NSR]; ok {
			result.Warnings = append(result.Warnings, clockimport.LineError{
				Line:    p.Line,
				Message: fmt.Sprintf("NSR %d repeats line %d and was skipped", p.NSR, first),
			})
			continue
		}
		seen[p.NSR] = p.Line

		employeeID, ok := resolved[p.Token]
		if !ok {
			if err, failed := unresolved[p.Token]; failed {
				result.Errors = append(result.Errors, tokenError(p, err))
				continue
			}
			id, err := s.directory.ResolveEmployeeByExternalID(ctx, tenantID, p.Token)
			if err != nil {
				unresolved[p.Token] = err
				result.Errors = append(result.Errors, tokenError(p, err))
				continue
			}
			resolved[p.Token] = id
			employeeID = id
		}

		key := employeeID + "/" + p.Date.Format(time.DateOnly)
		g, ok := index[key]
		if !ok {
			g = &dayGroup{employeeID: employeeID, date: p.Date}
			index[key] = g
			groups = append(groups, g)
		}
		g.punches = append(g.punches, resolvedPunch{Punch: p, EmployeeID: employeeID})
	}

	for _, g := range groups {
		sort.SliceStable(g.punches, func(i, j int) bool {
			if g.punches[i].Time != g.punches[j].Time {
				return g.punches[i].Time < g.punches[j].Time
			}
			return g.punches[i].NSR < g.punches[j].NSR
		})
	}
	return groups
}

func tokenError(p clockimport.Punch, err error) clockimport.LineError {
	if errors.Is(err, employee.ErrExternalIDNotFound) {
		return clockimport.LineError{Line: p.Line, Message: fmt.Sprintf("no employee registered for clock identifier %s", p.Token)}
	}
	return clockimport.LineError{Line: p.Line, Message: fmt.Sprintf("failed to resolve clock identifier %s: %v", p.Token, err)}
}

// importGroup inserts one employee-day. Punch types are inferred by
// alternating ENTRY and EXIT on the number of punches the day already has;
// an inferred type the sequence rules would refuse is still stored and
// reported as a warning.
func (s *ClockImportServiceImpl) importGroup(ctx context.Context, tenantID string, req clockimport.ImportRequest, g *dayGroup) (int, int, []clockimport.LineError, error) {
	var (
		imported   int
		duplicates int
		warnings   []clockimport.LineError
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		imported, duplicates, warnings = 0, 0, nil

		if err := s.locker.Lock(ctx, database.EmployeeDayLockKey(tenantID, g.employeeID, g.date)); err != nil {
			return err
		}

		closed, err := s.summaryRepo.IsClosed(ctx, tenantID, g.employeeID, g.date)
		if err != nil {
			return fmt.Errorf("failed to check closed day: %w", err)
		}
		if closed {
			return timerecord.ErrDayClosed
		}

		existing, err := s.timeRecords.ListByDate(ctx, tenantID, g.employeeID, g.date)
		if err != nil {
			return fmt.Errorf("failed to load punches of the day: %w", err)
		}
		day := timerecord.Counting(existing)

		now := s.clock.Now()
		for _, p := range g.punches {
			dup, err := s.timeRecords.ExistsByNSR(ctx, tenantID, req.SourceID, p.NSR)
			if err != nil {
				return fmt.Errorf("failed to check NSR %d: %w", p.NSR, err)
			}
			if dup {
				duplicates++
				continue
			}

			inferred := timerecord.PunchEntry
			if len(day)%2 == 1 {
				inferred = timerecord.PunchExit
			}

			pos := timerecord.InsertPosition(day, p.Time.Minutes())
			if err := timerecord.CheckInsertion(timerecord.PunchTypes(day), pos, inferred); err != nil {
				warnings = append(warnings, clockimport.LineError{
					Line:    p.Line,
					Message: fmt.Sprintf("inferred %s at %s breaks the punch sequence: %v", inferred, p.Time, err),
				})
			}

			nsr := p.NSR
			sourceID := req.SourceID
			record := timerecord.TimeRecord{
				TenantID:       tenantID,
				EmployeeID:     g.employeeID,
				RecordDate:     g.date,
				RecordTime:     p.Time,
				RecordedAt:     now,
				Type:           inferred,
				Source:         timerecord.SourceREP,
				Status:         timerecord.StatusValid,
				ImportSourceID: &sourceID,
				NSR:            &nsr,
			}
			if req.UploadedBy != "" {
				uploadedBy := req.UploadedBy
				record.CreatedBy = &uploadedBy
			}

			created, err := s.timeRecords.Create(ctx, record)
			if err != nil {
				return fmt.Errorf("failed to create time record: %w", err)
			}
			day = append(day, timerecord.TimeRecord{})
			copy(day[pos+1:], day[pos:])
			day[pos] = created
			imported++
		}

		if imported == 0 {
			return nil
		}
		if _, err := s.aggregator.Recompute(ctx, tenantID, g.employeeID, g.date); err != nil {
			return fmt.Errorf("failed to recompute daily summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, nil, err
	}
	for _, w := range warnings {
		slog.Warn("imported punch breaks the sequence", "tenant_id", tenantID, "employee_id", g.employeeID, "line", w.Line, "detail", w.Message)
	}
	return imported, duplicates, warnings, nil
}

// Validate implements clockimport.ClockImportService.
func (s *ClockImportServiceImpl) Validate(ctx context.Context, req clockimport.ImportRequest) (clockimport.ValidationResult, error) {
	if req.File == nil {
		return clockimport.ValidationResult{}, validator.ValidationErrors{{Field: "file", Message: "file is required"}}
	}

	data, err := readAll(req.File)
	if err != nil {
		return clockimport.ValidationResult{}, err
	}

	doc, err := clockimport.Parse(bytes.NewReader(data))
	if err != nil {
		return clockimport.ValidationResult{}, err
	}
	return clockimport.NewValidationResult(req.FileName, doc), nil
}

func NewClockImportService(
	tx database.Transactor,
	locker database.Locker,
	timeRecordRepo timerecord.TimeRecordRepository,
	summaryRepo summary.DailySummaryRepository,
	aggregator summary.Aggregator,
	directory employee.Directory,
	fileService file.FileService,
	publisher eventbus.Publisher,
	clk clock.Clock,
) clockimport.ClockImportService {
	return &ClockImportServiceImpl{
		tx:          tx,
		locker:      locker,
		timeRecords: timeRecordRepo,
		summaryRepo: summaryRepo,
		aggregator:  aggregator,
		directory:   directory,
		fileService: fileService,
		publisher:   publisher,
		clock:       clk,
	}
}
