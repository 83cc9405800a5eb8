package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"go.uber.org/zap"

	"github.com/RentalBee/service-rental/internal/common/domain"
	reportDomain "github.com/RentalBee/service-rental/internal/domain/report"
)

const reportDateLayout = "2006-01-02"

// ReportPeriodQuery is the date range of a report. Both ends are inclusive
// calendar days; the default is the current month.
type ReportPeriodQuery struct {
	From       string `form:"from"`
	To         string `form:"to"`
	LocationID string `form:"locationId"`
	CarID      string `form:"carId"`
}

// SalesLineDTO is one row of the sales report.
type SalesLineDTO struct {
	reportDomain.SalesRow
	Revenue float64 `json:"revenue"`
}

// SalesReportDTO is the sales report with its totals.
type SalesReportDTO struct {
	From          string         `json:"from"`
	To            string         `json:"to"`
	Lines         []SalesLineDTO `json:"lines"`
	TotalBookings int64          `json:"totalBookings"`
	TotalRevenue  float64        `json:"totalRevenue"`
}

// StaffReportDTO is the staff performance report.
type StaffReportDTO struct {
	From   string                  `json:"from"`
	To     string                  `json:"to"`
	Agents []reportDomain.StaffRow `json:"agents"`
}

// ReportService builds the back-office reports.
type ReportService struct {
	repo   reportDomain.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(repo reportDomain.Repository, logger *zap.Logger) *ReportService {
	return &ReportService{repo: repo, logger: logger, now: time.Now}
}

// Sales reports bookings and revenue per pickup location and car.
func (s *ReportService) Sales(ctx context.Context, q ReportPeriodQuery) (*SalesReportDTO, error) {
	from, to, err := s.period(q)
	if err != nil {
		return nil, err
	}
	query := reportDomain.SalesQuery{From: from, To: to}
	if query.LocationID, err = optionalFilterID(q.LocationID); err != nil {
		return nil, err
	}
	if query.CarID, err = optionalFilterID(q.CarID); err != nil {
		return nil, err
	}

	rows, err := s.repo.Sales(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to build sales report: %w", err)
	}

	report := &SalesReportDTO{
		From:  from.Format(reportDateLayout),
		To:    to.AddDate(0, 0, -1).Format(reportDateLayout),
		Lines: make([]SalesLineDTO, len(rows)),
	}
	var revenue int64
	for i, row := range rows {
		report.Lines[i] = SalesLineDTO{SalesRow: row, Revenue: centsToAmount(row.RevenueCents)}
		report.TotalBookings += row.Bookings
		revenue += row.RevenueCents
	}
	report.TotalRevenue = centsToAmount(revenue)
	return report, nil
}

// StaffPerformance reports per-agent booking changes.
func (s *ReportService) StaffPerformance(ctx context.Context, q ReportPeriodQuery) (*StaffReportDTO, error) {
	from, to, err := s.period(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.StaffPerformance(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build staff report: %w", err)
	}
	if rows == nil {
		rows = []reportDomain.StaffRow{}
	}
	return &StaffReportDTO{
		From:   from.Format(reportDateLayout),
		To:     to.AddDate(0, 0, -1).Format(reportDateLayout),
		Agents: rows,
	}, nil
}

// period returns [from, to) in UTC, with to the midnight after the last day.
func (s *ReportService) period(q ReportPeriodQuery) (time.Time, time.Time, error) {
	current := now.With(s.now().UTC())
	from, to := current.BeginningOfMonth(), current.EndOfMonth()

	if strings.TrimSpace(q.From) != "" {
		t, err := time.ParseInLocation(reportDateLayout, strings.TrimSpace(q.From), time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewValidationError("from must be YYYY-MM-DD")
		}
		from = t
	}
	if strings.TrimSpace(q.To) != "" {
		t, err := time.ParseInLocation(reportDateLayout, strings.TrimSpace(q.To), time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewValidationError("to must be YYYY-MM-DD")
		}
		to = t
	}

	end := now.With(to).BeginningOfDay().AddDate(0, 0, 1)
	if !from.Before(end) {
		return time.Time{}, time.Time{}, domain.NewValidationError("from must not be after to")
	}
	return from, end, nil
}

func optionalFilterID(raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, domain.NewValidationError("invalid id: " + raw)
	}
	return &id, nil
}
