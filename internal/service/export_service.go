package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-sis/scheduler-api/internal/models"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
	"github.com/meridian-sis/scheduler-api/pkg/export"
)

// Report formats accepted by the export endpoints.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

type exportConflictAnalyzer interface {
	Analyze(ctx context.Context, scheduleID string) (*models.ConflictAnalysis, error)
}

type exportWaveReader interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.LunchWave, error)
}

type exportLunchReader interface {
	ListStudentsByWave(ctx context.Context, waveID string) ([]models.StudentLunchAssignment, error)
}

type exportStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered report ready to stream to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders conflict reports and lunch rosters as CSV or PDF.
type ExportService struct {
	conflicts exportConflictAnalyzer
	waves     exportWaveReader
	lunch     exportLunchReader
	students  exportStudentReader
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(
	conflicts exportConflictAnalyzer,
	waves exportWaveReader,
	lunch exportLunchReader,
	students exportStudentReader,
	logger *zap.Logger,
	csv csvRenderer,
	pdf pdfRenderer,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		conflicts: conflicts,
		waves:     waves,
		lunch:     lunch,
		students:  students,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
	}
}

// ConflictReport renders the current conflict analysis for a schedule.
func (s *ExportService) ConflictReport(ctx context.Context, scheduleID, format string) (*ExportResult, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "scheduleId is required")
	}

	analysis, err := s.conflicts.Analyze(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Type", "Severity", "Hard", "Description", "Penalty"},
	}
	for _, c := range analysis.Conflicts {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":          c.ID,
			"Type":        c.Type,
			"Severity":    c.Severity,
			"Hard":        strconv.FormatBool(c.Hard),
			"Description": c.Description,
			"Penalty":     strconv.Itoa(c.PenaltyCost),
		})
	}

	title := fmt.Sprintf("Conflict Report %s", scheduleID)
	return s.render(dataset, title, fmt.Sprintf("conflicts-%s", scheduleID), format)
}

// LunchRoster renders the student lunch roster for a schedule, wave by wave.
func (s *ExportService) LunchRoster(ctx context.Context, scheduleID, format string) (*ExportResult, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "scheduleId is required")
	}

	waves, err := s.waves.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lunch waves")
	}
	if len(waves) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no lunch waves configured for schedule")
	}

	dataset := export.Dataset{
		Headers: []string{"Wave", "Student", "Grade", "Method", "Locked"},
	}
	for _, wave := range waves {
		placed, err := s.lunch.ListStudentsByWave(ctx, wave.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wave assignments")
		}
		for _, assignment := range placed {
			name := assignment.StudentID
			grade := ""
			if student, err := s.students.FindByID(ctx, assignment.StudentID); err == nil {
				name = student.LastName + ", " + student.FirstName
				grade = strconv.Itoa(student.GradeLevel)
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Wave":    wave.Name,
				"Student": name,
				"Grade":   grade,
				"Method":  assignment.Method,
				"Locked":  strconv.FormatBool(assignment.Locked || assignment.ManualOverride),
			})
		}
	}

	title := fmt.Sprintf("Lunch Roster %s", scheduleID)
	return s.render(dataset, title, fmt.Sprintf("lunch-roster-%s", scheduleID), format)
}

func (s *ExportService) render(dataset export.Dataset, title, stem, format string) (*ExportResult, error) {
	stamp := time.Now().UTC().Format("20060102-150405")
	switch strings.ToLower(format) {
	case ReportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("%s-%s.csv", stem, stamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ReportFormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("%s-%s.pdf", stem, stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, fmt.Sprintf("unsupported export format %q", format))
	}
}
