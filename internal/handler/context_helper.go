package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/calendar-api/pkg/dateutil"
	appErrors "github.com/campuskit/calendar-api/pkg/errors"
)

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateutil.DateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", name))
	}
	day := dateutil.Day(parsed)
	return &day, nil
}

// requireQueryDate parses a mandatory YYYY-MM-DD query parameter.
func requireQueryDate(c *gin.Context, name string) (time.Time, error) {
	parsed, err := queryDate(c, name)
	if err != nil {
		return time.Time{}, err
	}
	if parsed == nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", name))
	}
	return *parsed, nil
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil {
			return val
		}
	}
	return fallback
}
