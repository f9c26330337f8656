package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the platform report, in workbook order.
const (
	SheetEmployers     = "Employers"
	SheetOpportunities = "Opportunities"
	SheetApplications  = "Applications"
)

const exportTimeLayout = time.RFC3339

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(deps Dependencies) ExportService {
	deps = withDefaults(deps)
	return &exportService{
		repo:   deps.Repo,
		logger: deps.Logger,
	}
}

// ExportPlatformReport writes every employer, listing (including inactive and
// unverified ones) and application to one workbook.
func (s *exportService) ExportPlatformReport(ctx context.Context, w io.Writer) error {
	employers, err := s.repo.EmployerProfile().List(ctx, nil, repositories.EmployerFilters{})
	if err != nil {
		return fmt.Errorf("failed to list employers: %w", err)
	}
	opportunities, _, err := s.repo.Opportunity().List(ctx, nil, models.ListOpportunitiesParams{})
	if err != nil {
		return fmt.Errorf("failed to list opportunities: %w", err)
	}
	applications, err := s.repo.Application().ListAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Error("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetEmployers); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetOpportunities); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetApplications); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	employerRows := make([][]interface{}, 0, len(employers))
	for _, e := range employers {
		email := ""
		if e.User != nil {
			email = e.User.Email
		}
		employerRows = append(employerRows, []interface{}{
			e.ID, e.CompanyName, deref(e.Industry), deref(e.Location), email, e.IsVerified, e.CreatedAt.Format(exportTimeLayout),
		})
	}
	if err := writeSheet(f, SheetEmployers,
		[]interface{}{"ID", "Company", "Industry", "Location", "Email", "Verified", "Created At"},
		employerRows); err != nil {
		return err
	}

	opportunityRows := make([][]interface{}, 0, len(opportunities))
	for _, o := range opportunities {
		company := ""
		if o.Employer != nil {
			company = o.Employer.CompanyName
		}
		opportunityRows = append(opportunityRows, []interface{}{
			o.ID, o.Title, company, deref(o.Category), string(o.LocationType), o.IsActive, o.IsVerified,
			formatTime(o.Deadline), o.CreatedAt.Format(exportTimeLayout),
		})
	}
	if err := writeSheet(f, SheetOpportunities,
		[]interface{}{"ID", "Title", "Company", "Category", "Location Type", "Active", "Verified", "Deadline", "Created At"},
		opportunityRows); err != nil {
		return err
	}

	applicationRows := make([][]interface{}, 0, len(applications))
	for _, a := range applications {
		student, title := "", ""
		if a.Student != nil && a.Student.User != nil {
			student = a.Student.User.FullName()
		}
		if a.Opportunity != nil {
			title = a.Opportunity.Title
		}
		applicationRows = append(applicationRows, []interface{}{
			a.ID, student, title, string(a.Status), a.AppliedAt.Format(exportTimeLayout), formatTime(a.CompletedAt),
		})
	}
	if err := writeSheet(f, SheetApplications,
		[]interface{}{"ID", "Student", "Opportunity", "Status", "Applied At", "Completed At"},
		applicationRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Platform report exported",
		"employers", len(employers), "opportunities", len(opportunities), "applications", len(applications))
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimeLayout)
}
