package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/calendar-api/internal/middleware"
	"github.com/campuskit/calendar-api/internal/models"
	"github.com/campuskit/calendar-api/internal/service"
	appErrors "github.com/campuskit/calendar-api/pkg/errors"
	"github.com/campuskit/calendar-api/pkg/response"
)

// EventHandler exposes academic event endpoints.
type EventHandler struct {
	service *service.EventService
	metrics *service.MetricsService
}

// NewEventHandler constructs an event handler. metrics may be nil.
func NewEventHandler(svc *service.EventService, metrics *service.MetricsService) *EventHandler {
	return &EventHandler{service: svc, metrics: metrics}
}

// Create godoc
// @Summary Create academic event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.CreatedBy = middleware.ActorID(c)
	event, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update academic event
// @Description Partial update; omitted fields keep their stored values
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.UpdateEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [patch]
func (h *EventHandler) Update(c *gin.Context) {
	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete academic event
// @Description Soft delete; the record is retained for historical reports
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get academic event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// List godoc
// @Summary List academic events
// @Description Lists ACTIVE events; date bounds select intersecting ranges
// @Tags Events
// @Produce json
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Param type query string false "Event type"
// @Param academicCycleId query string false "Academic cycle filter"
// @Param campusId query string false "Campus filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var filter models.EventFilter
	var err error
	if filter.StartDate, err = queryDate(c, "startDate"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.EndDate, err = queryDate(c, "endDate"); err != nil {
		response.Error(c, err)
		return
	}
	filter.Type = models.EventType(c.Query("type"))
	filter.AcademicCycleID = c.Query("academicCycleId")
	filter.CampusID = c.Query("campusId")
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 50)

	events, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Range godoc
// @Summary List academic events in a date range
// @Tags Events
// @Produce json
// @Param start query string true "Range start (YYYY-MM-DD)"
// @Param end query string true "Range end (YYYY-MM-DD)"
// @Param campusId query string false "Campus filter"
// @Success 200 {object} response.Envelope
// @Router /events/range [get]
func (h *EventHandler) Range(c *gin.Context) {
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
	events, err := h.service.EventsInRange(c.Request.Context(), start, end, c.Query("campusId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// CheckConflicts godoc
// @Summary Probe for scheduling conflicts
// @Description Returns the ACTIVE events a proposed range would collide with, without persisting anything
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CheckConflictsRequest true "Conflict probe"
// @Success 200 {object} response.Envelope
// @Router /events/check-conflicts [post]
func (h *EventHandler) CheckConflicts(c *gin.Context) {
	var req service.CheckConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	conflicts, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordConflictCheck("event", len(conflicts) > 0)
	response.JSON(c, http.StatusOK, gin.H{
		"has_conflicts": len(conflicts) > 0,
		"conflicts":     conflicts,
	}, nil)
}
