package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/clockimport"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
)

type ClockImportHandler interface {
	Import(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
}

type clockImportHandlerImpl struct {
	clockImportService clockimport.ClockImportService
}

func NewClockImportHandler(clockImportService clockimport.ClockImportService) ClockImportHandler {
	return &clockImportHandlerImpl{
		clockImportService: clockImportService,
	}
}

// readImportForm writes a 400 and returns false when the form has no file.
// The caller closes the returned file.
func readImportForm(w http.ResponseWriter, r *http.Request) (clockimport.ImportRequest, func(), bool) {
	if err := r.ParseMultipartForm(clockimport.MaxFileSize); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return clockimport.ImportRequest{}, nil, false
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			response.BadRequest(w, "Clock file is required", nil)
			return clockimport.ImportRequest{}, nil, false
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return clockimport.ImportRequest{}, nil, false
	}

	req := clockimport.ImportRequest{
		SourceID: r.FormValue("source_id"),
		FileName: fileHeader.Filename,
		FileSize: fileHeader.Size,
		File:     file,
	}
	return req, func() { file.Close() }, true
}

func (h *clockImportHandlerImpl) Import(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	req, closeFile, ok := readImportForm(w, r)
	if !ok {
		return
	}
	defer closeFile()
	req.UploadedBy = claims.UserID

	result, err := h.clockImportService.Import(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock file imported", result)
}

// Validate checks the file framing without writing anything.
func (h *clockImportHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	req, closeFile, ok := readImportForm(w, r)
	if !ok {
		return
	}
	defer closeFile()
	req.UploadedBy = claims.UserID

	result, err := h.clockImportService.Validate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
