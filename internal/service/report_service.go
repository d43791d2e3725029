package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/calendar-api/internal/models"
	"github.com/campuskit/calendar-api/pkg/dateutil"
	appErrors "github.com/campuskit/calendar-api/pkg/errors"
)

type eventRangeProvider interface {
	EventsInRange(ctx context.Context, start, end time.Time, campusID string) ([]models.CalendarEvent, error)
}

type holidayRangeProvider interface {
	HolidaysInRange(ctx context.Context, start, end time.Time, campusID string) ([]models.Holiday, error)
}

type termReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindCycle(ctx context.Context, id string) (*models.AcademicCycle, error)
}

type userResolver interface {
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}

// ReportService assembles monthly and term-level calendar reports from the
// holiday and event managers. Reports are recomputed on every call; failures
// here indicate a bug or an infrastructure fault, not bad user input, and
// surface as internal errors with the cause preserved.
type ReportService struct {
	events   eventRangeProvider
	holidays holidayRangeProvider
	terms    termReader
	users    userResolver
	logger   *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(events eventRangeProvider, holidays holidayRangeProvider, terms termReader, users userResolver, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{events: events, holidays: holidays, terms: terms, users: users, logger: logger}
}

// GenerateMonthlyReport builds the calendar report for the month containing
// date, optionally narrowed to one campus.
func (s *ReportService) GenerateMonthlyReport(ctx context.Context, date time.Time, campusID string) (*models.MonthlyCalendarReport, error) {
	start, end := dateutil.MonthBounds(date)

	events, holidays, err := s.fetchPeriod(ctx, start, end, campusID)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize(ctx, start, end, events, holidays)
	if err != nil {
		return nil, err
	}

	return &models.MonthlyCalendarReport{
		Period: models.ReportPeriod{
			Start: start,
			End:   end,
			Label: start.Format("January 2006"),
		},
		Summary: *summary,
	}, nil
}

// GenerateTermReport builds the calendar report for a full term, including a
// per-month breakdown for every calendar month the term touches.
func (s *ReportService) GenerateTermReport(ctx context.Context, termID, campusID string) (*models.TermCalendarReport, error) {
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	cycle, err := s.terms.FindCycle(ctx, term.AcademicCycleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic cycle")
	}

	start, end := dateutil.Day(term.StartDate), dateutil.Day(term.EndDate)
	events, holidays, err := s.fetchPeriod(ctx, start, end, campusID)
	if err != nil {
		return nil, err
	}
	summary, err := s.summarize(ctx, start, end, events, holidays)
	if err != nil {
		return nil, err
	}

	// Later months never depend on earlier ones; sequential composition is
	// kept for simplicity.
	var months []models.MonthlyCalendarReport
	for _, monthStart := range dateutil.MonthStarts(start, end) {
		monthly, err := s.GenerateMonthlyReport(ctx, monthStart, campusID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assemble term month breakdown")
		}
		months = append(months, *monthly)
	}

	return &models.TermCalendarReport{
		Term:  *term,
		Cycle: *cycle,
		Period: models.ReportPeriod{
			Start: start,
			End:   end,
			Label: term.Name,
		},
		Summary: *summary,
		Months:  months,
	}, nil
}

// fetchPeriod loads events and holidays for a window concurrently; the two
// queries are independent.
func (s *ReportService) fetchPeriod(ctx context.Context, start, end time.Time, campusID string) ([]models.CalendarEvent, []models.Holiday, error) {
	var (
		wg          sync.WaitGroup
		events      []models.CalendarEvent
		holidays    []models.Holiday
		eventsErr   error
		holidaysErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		events, eventsErr = s.events.EventsInRange(ctx, start, end, campusID)
	}()
	go func() {
		defer wg.Done()
		holidays, holidaysErr = s.holidays.HolidaysInRange(ctx, start, end, campusID)
	}()
	wg.Wait()

	if eventsErr != nil {
		return nil, nil, appErrors.Wrap(eventsErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch events for report")
	}
	if holidaysErr != nil {
		return nil, nil, appErrors.Wrap(holidaysErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch holidays for report")
	}
	return events, holidays, nil
}

func (s *ReportService) summarize(ctx context.Context, start, end time.Time, events []models.CalendarEvent, holidays []models.Holiday) (*models.CalendarSummary, error) {
	names, err := s.resolveCreators(ctx, events, holidays)
	if err != nil {
		return nil, err
	}

	eventGroups := make(map[models.EventType][]models.ReportEvent)
	for _, event := range events {
		eventGroups[event.Type] = append(eventGroups[event.Type], models.ReportEvent{
			CalendarEvent: event,
			CreatedByName: names[event.CreatedBy],
		})
	}
	holidayGroups := make(map[models.HolidayType][]models.ReportHoliday)
	intervals := make([]dateutil.Interval, 0, len(holidays))
	for _, holiday := range holidays {
		holidayGroups[holiday.Type] = append(holidayGroups[holiday.Type], models.ReportHoliday{
			Holiday:       holiday,
			CreatedByName: names[holiday.CreatedBy],
		})
		intervals = append(intervals, holiday.Interval())
	}

	summary := &models.CalendarSummary{
		TotalEvents:   len(events),
		TotalHolidays: len(holidays),
		WorkingDays:   dateutil.WorkingDays(start, end, intervals),
	}
	for _, eventType := range models.EventTypes {
		if records, ok := eventGroups[eventType]; ok {
			summary.EventsByType = append(summary.EventsByType, models.EventTypeBreakdown{
				Type:    eventType,
				Count:   len(records),
				Records: records,
			})
		}
	}
	for _, holidayType := range models.HolidayTypes {
		if records, ok := holidayGroups[holidayType]; ok {
			summary.HolidaysByType = append(summary.HolidaysByType, models.HolidayTypeBreakdown{
				Type:    holidayType,
				Count:   len(records),
				Records: records,
			})
		}
	}
	return summary, nil
}

// resolveCreators maps creator ids to display names. Unresolvable ids fall
// back to the placeholder; a lookup failure degrades to placeholders for
// everyone rather than failing the report.
func (s *ReportService) resolveCreators(ctx context.Context, events []models.CalendarEvent, holidays []models.Holiday) (map[string]string, error) {
	idSet := make(map[string]struct{})
	for _, event := range events {
		idSet[event.CreatedBy] = struct{}{}
	}
	for _, holiday := range holidays {
		idSet[holiday.CreatedBy] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	names := map[string]string{}
	if s.users != nil && len(ids) > 0 {
		resolved, err := s.users.DisplayNames(ctx, ids)
		if err != nil {
			s.logger.Warn("failed to resolve report attribution", zap.Error(err))
		} else {
			names = resolved
		}
	}
	for id := range idSet {
		if _, ok := names[id]; !ok {
			names[id] = models.UnknownUserName
		}
	}
	return names, nil
}
