package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/calendar-api/internal/models"
	"github.com/campuskit/calendar-api/internal/service"
	"github.com/campuskit/calendar-api/pkg/dateutil"
	appErrors "github.com/campuskit/calendar-api/pkg/errors"
	"github.com/campuskit/calendar-api/pkg/export"
	"github.com/campuskit/calendar-api/pkg/response"
)

// ReportHandler exposes calendar report endpoints. Reports are recomputed on
// every request; the response cache never applies here.
type ReportHandler struct {
	service        *service.ReportService
	metrics        *service.MetricsService
	csv            *export.CSVExporter
	pdf            *export.PDFExporter
	exportsEnabled bool
}

// NewReportHandler constructs a report handler. metrics may be nil.
func NewReportHandler(svc *service.ReportService, metrics *service.MetricsService, exportsEnabled bool) *ReportHandler {
	return &ReportHandler{
		service:        svc,
		metrics:        metrics,
		csv:            export.NewCSVExporter(),
		pdf:            export.NewPDFExporter(),
		exportsEnabled: exportsEnabled,
	}
}

// Monthly godoc
// @Summary Generate monthly calendar report
// @Description Aggregates events, holidays and working days for the month containing the given date
// @Tags Reports
// @Produce json
// @Param date query string true "Any date inside the month (YYYY-MM-DD)"
// @Param campusId query string false "Campus filter"
// @Param format query string false "Export format (csv or pdf)"
// @Success 200 {object} response.Envelope
// @Router /reports/calendar/monthly [get]
func (h *ReportHandler) Monthly(c *gin.Context) {
	date, err := requireQueryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	started := time.Now()
	report, err := h.service.GenerateMonthlyReport(c.Request.Context(), date, c.Query("campusId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveReport("monthly", time.Since(started))

	if format := c.Query("format"); format != "" {
		h.export(c, format, "calendar-monthly", report.Period, report.Summary)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Term godoc
// @Summary Generate term calendar report
// @Description Aggregates the full term plus a breakdown per calendar month
// @Tags Reports
// @Produce json
// @Param id path string true "Term ID"
// @Param campusId query string false "Campus filter"
// @Param format query string false "Export format (csv or pdf)"
// @Success 200 {object} response.Envelope
// @Router /reports/calendar/terms/{id} [get]
func (h *ReportHandler) Term(c *gin.Context) {
	started := time.Now()
	report, err := h.service.GenerateTermReport(c.Request.Context(), c.Param("id"), c.Query("campusId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveReport("term", time.Since(started))

	if format := c.Query("format"); format != "" {
		h.export(c, format, "calendar-term", report.Period, report.Summary)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

func (h *ReportHandler) export(c *gin.Context, format, prefix string, period models.ReportPeriod, summary models.CalendarSummary) {
	if !h.exportsEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "exports are disabled"))
		return
	}
	data := buildDataset(summary)
	switch format {
	case "csv":
		payload, err := h.csv.Render(data)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render CSV export"))
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+export.Filename(prefix, "csv"))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(data, "Calendar Report "+period.Label, summaryRows(period, summary))
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render PDF export"))
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+export.Filename(prefix, "pdf"))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func buildDataset(summary models.CalendarSummary) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Kind", "Type", "Name", "Start Date", "End Date", "Created By"},
	}
	for _, breakdown := range summary.EventsByType {
		for _, record := range breakdown.Records {
			data.Rows = append(data.Rows, map[string]string{
				"Kind":       "Event",
				"Type":       string(record.Type),
				"Name":       record.Name,
				"Start Date": record.StartDate.Format(dateutil.DateLayout),
				"End Date":   record.EndDate.Format(dateutil.DateLayout),
				"Created By": record.CreatedByName,
			})
		}
	}
	for _, breakdown := range summary.HolidaysByType {
		for _, record := range breakdown.Records {
			data.Rows = append(data.Rows, map[string]string{
				"Kind":       "Holiday",
				"Type":       string(record.Type),
				"Name":       record.Name,
				"Start Date": record.StartDate.Format(dateutil.DateLayout),
				"End Date":   record.EndDate.Format(dateutil.DateLayout),
				"Created By": record.CreatedByName,
			})
		}
	}
	return data
}

func summaryRows(period models.ReportPeriod, summary models.CalendarSummary) [][2]string {
	return [][2]string{
		{"Period", period.Start.Format(dateutil.DateLayout) + " to " + period.End.Format(dateutil.DateLayout)},
		{"Total Events", strconv.Itoa(summary.TotalEvents)},
		{"Total Holidays", strconv.Itoa(summary.TotalHolidays)},
		{"Working Days", strconv.Itoa(summary.WorkingDays)},
	}
}
