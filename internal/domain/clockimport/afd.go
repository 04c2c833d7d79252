package clockimport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"golang.org/x/text/encoding/charmap"
)

// Record types of a clock-terminal export (AFD). Types 2, 4 and 5 describe
// company, clock and roster changes and are not imported.
const (
	RecordHeader  = '1'
	RecordPunch   = '3'
	RecordTrailer = '9'
)

// Punch line layout, 0-indexed half-open character ranges.
const (
	nsrStart, nsrEnd     = 1, 10
	dateStart, dateEnd   = 10, 18
	timeStart, timeEnd   = 18, 22
	tokenStart, tokenEnd = 22, 34

	// A punch line needs everything up to the time plus at least one token character.
	minPunchLength = tokenStart + 1
)

const (
	afdDateLayout = "02012006"
	afdTimeLayout = "1504"
)

// Header carries the exporting company. It is informational.
type Header struct {
	TaxID        string
	CompanyName  string
	DeviceNumber string
}

// Punch is one parsed type-3 line.
type Punch struct {
	Line  int
	NSR   int64
	Date  time.Time
	Time  clock.TimeOfDay
	Token string
}

type LineError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Document is a parsed clock file. Malformed lines end up in Errors and never
// stop the parse.
type Document struct {
	Header  *Header
	Punches []Punch
	// TrailerCount is the punch count the trailer declares, when present.
	TrailerCount *int
	Errors       []LineError
	Lines        int
	// PunchLines counts type-3 lines, parsed or not.
	PunchLines int
	FirstType  byte
	LastType   byte
}

// MaxLineLength bounds a single line in bytes. Longer lines are reported as
// line errors and skipped.
const MaxLineLength = 4096

// Parse decodes an ISO-8859-1 clock file. Only read failures are returned.
func Parse(r io.Reader) (*Document, error) {
	reader := bufio.NewReaderSize(charmap.ISO8859_1.NewDecoder().Reader(r), MaxLineLength)

	doc := &Document{}
	lineNumber := 0
	for {
		raw, isPrefix, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read clock file: %w", err)
		}
		lineNumber++

		text := string(raw)
		if isPrefix {
			if err := skipRestOfLine(reader); err != nil {
				return nil, fmt.Errorf("failed to read clock file: %w", err)
			}
		}

		line := []rune(text)
		if len(strings.TrimSpace(text)) == 0 {
			continue
		}

		doc.Lines++
		recordType := byte(line[0])
		if line[0] > 0x7f {
			recordType = '?'
		}
		if doc.FirstType == 0 {
			doc.FirstType = recordType
		}
		doc.LastType = recordType

		if recordType == RecordPunch {
			doc.PunchLines++
		}
		if isPrefix {
			doc.Errors = append(doc.Errors, LineError{
				Line:    lineNumber,
				Message: fmt.Sprintf("line is longer than %d bytes", MaxLineLength),
			})
			continue
		}

		switch recordType {
		case RecordHeader:
			doc.Header = parseHeader(line)
		case RecordPunch:
			punch, err := parsePunch(line)
			if err != nil {
				doc.Errors = append(doc.Errors, LineError{Line: lineNumber, Message: err.Error()})
				continue
			}
			punch.Line = lineNumber
			doc.Punches = append(doc.Punches, punch)
		case RecordTrailer:
			count, err := parseTrailer(line)
			if err != nil {
				doc.Errors = append(doc.Errors, LineError{Line: lineNumber, Message: err.Error()})
				continue
			}
			doc.TrailerCount = &count
		case '2', '4', '5':
		default:
			doc.Errors = append(doc.Errors, LineError{
				Line:    lineNumber,
				Message: fmt.Sprintf("unknown record type %q", string(line[0])),
			})
		}
	}
	return doc, nil
}

// skipRestOfLine discards the remainder of a line that did not fit the buffer.
func skipRestOfLine(reader *bufio.Reader) error {
	for {
		_, isPrefix, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !isPrefix {
			return nil
		}
	}
}

// field returns line[start:end] clipped to the line length, trimmed.
func field(line []rune, start, end int) string {
	if start >= len(line) {
		return ""
	}
	return strings.TrimSpace(string(line[start:min(end, len(line))]))
}

func parseHeader(line []rune) *Header {
	return &Header{
		TaxID:        field(line, 1, 15),
		CompanyName:  field(line, 27, 177),
		DeviceNumber: field(line, 177, 195),
	}
}

func parsePunch(line []rune) (Punch, error) {
	if len(line) < minPunchLength {
		return Punch{}, fmt.Errorf("punch line too short: expected at least %d characters, got %d", minPunchLength, len(line))
	}

	nsrText := field(line, nsrStart, nsrEnd)
	nsr, err := strconv.ParseInt(nsrText, 10, 64)
	if err != nil || nsr < 0 {
		return Punch{}, fmt.Errorf("invalid NSR %q", nsrText)
	}

	dateText := string(line[dateStart:dateEnd])
	date, err := time.Parse(afdDateLayout, dateText)
	if err != nil {
		return Punch{}, fmt.Errorf("invalid date %q: expected ddMMyyyy", dateText)
	}

	timeText := string(line[timeStart:timeEnd])
	at, err := time.Parse(afdTimeLayout, timeText)
	if err != nil {
		return Punch{}, fmt.Errorf("invalid time %q: expected HHmm", timeText)
	}

	token := field(line, tokenStart, tokenEnd)
	if token == "" {
		return Punch{}, fmt.Errorf("missing employee identifier")
	}

	return Punch{
		NSR:   nsr,
		Date:  date,
		Time:  clock.FromTime(at),
		Token: token,
	}, nil
}

func parseTrailer(line []rune) (int, error) {
	text := field(line, 10, 19)
	count, err := strconv.Atoi(text)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("invalid trailer punch count %q", text)
	}
	return count, nil
}

// Structure checks the framing of a parsed document: a header first, a
// trailer last and a trailer count matching the punch lines.
func (d *Document) Structure() []string {
	var problems []string
	if d.Lines == 0 {
		return []string{"file is empty"}
	}
	if d.FirstType != RecordHeader {
		problems = append(problems, "file does not start with a header record (type 1)")
	}
	if d.LastType != RecordTrailer {
		problems = append(problems, "file does not end with a trailer record (type 9)")
	}
	if d.TrailerCount != nil && *d.TrailerCount != d.PunchLines {
		problems = append(problems, fmt.Sprintf("trailer declares %d punch records but the file has %d", *d.TrailerCount, d.PunchLines))
	}
	return problems
}
