package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/calendar-api/internal/middleware"
	"github.com/campuskit/calendar-api/internal/models"
	"github.com/campuskit/calendar-api/internal/service"
	"github.com/campuskit/calendar-api/pkg/dateutil"
	appErrors "github.com/campuskit/calendar-api/pkg/errors"
	"github.com/campuskit/calendar-api/pkg/response"
)

// HolidayHandler exposes holiday endpoints.
type HolidayHandler struct {
	service *service.HolidayService
}

// NewHolidayHandler constructs a holiday handler.
func NewHolidayHandler(svc *service.HolidayService) *HolidayHandler {
	return &HolidayHandler{service: svc}
}

// Create godoc
// @Summary Create holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Param payload body service.CreateHolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Router /holidays [post]
func (h *HolidayHandler) Create(c *gin.Context) {
	var req service.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.CreatedBy = middleware.ActorID(c)
	holiday, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// Update godoc
// @Summary Update holiday
// @Description Partial update; omitted fields keep their stored values
// @Tags Holidays
// @Accept json
// @Produce json
// @Param id path string true "Holiday ID"
// @Param payload body service.UpdateHolidayRequest true "Holiday payload"
// @Success 200 {object} response.Envelope
// @Router /holidays/{id} [patch]
func (h *HolidayHandler) Update(c *gin.Context) {
	var req service.UpdateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	holiday, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holiday, nil)
}

// Delete godoc
// @Summary Delete holiday
// @Description Soft delete; the record is retained for historical reports
// @Tags Holidays
// @Produce json
// @Param id path string true "Holiday ID"
// @Success 204
// @Router /holidays/{id} [delete]
func (h *HolidayHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get holiday
// @Tags Holidays
// @Produce json
// @Param id path string true "Holiday ID"
// @Success 200 {object} response.Envelope
// @Router /holidays/{id} [get]
func (h *HolidayHandler) Get(c *gin.Context) {
	holiday, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holiday, nil)
}

// List godoc
// @Summary List holidays
// @Description Lists ACTIVE holidays; date bounds select intersecting ranges
// @Tags Holidays
// @Produce json
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Param type query string false "Holiday type"
// @Param campusId query string false "Campus filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	var filter models.HolidayFilter
	var err error
	if filter.StartDate, err = queryDate(c, "startDate"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.EndDate, err = queryDate(c, "endDate"); err != nil {
		response.Error(c, err)
		return
	}
	filter.Type = models.HolidayType(c.Query("type"))
	filter.CampusID = c.Query("campusId")
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 50)

	holidays, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, pagination)
}

// Check godoc
// @Summary Check whether a date is a holiday
// @Tags Holidays
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param campusId query string false "Campus filter"
// @Success 200 {object} response.Envelope
// @Router /holidays/check [get]
func (h *HolidayHandler) Check(c *gin.Context) {
	date, err := requireQueryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	campusID := c.Query("campusId")
	isHoliday, err := h.service.IsHoliday(c.Request.Context(), date, campusID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"date":       date.Format(dateutil.DateLayout),
		"campus_id":  campusID,
		"is_holiday": isHoliday,
	}, nil)
}

// Range godoc
// @Summary List holidays in a date range
// @Tags Holidays
// @Produce json
// @Param start query string true "Range start (YYYY-MM-DD)"
// @Param end query string true "Range end (YYYY-MM-DD)"
// @Param campusId query string false "Campus filter"
// @Success 200 {object} response.Envelope
// @Router /holidays/range [get]
func (h *HolidayHandler) Range(c *gin.Context) {
	start, err := requireQueryDate(c, "start")
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := requireQueryDate(c, "end")
	if err != nil {
		response.Error(c, err)
		return
	}
	holidays, err := h.service.HolidaysInRange(c.Request.Context(), start, end, c.Query("campusId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, nil)
}
