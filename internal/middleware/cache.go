package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/calendar-api/internal/repository"
	"github.com/campuskit/calendar-api/internal/service"
	appErrors "github.com/campuskit/calendar-api/pkg/errors"
)

const cacheKeyPrefix = "calendar:http:"

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type captureWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *captureWriter) Write(data []byte) (int, error) {
	w.body = append(w.body, data...)
	return w.ResponseWriter.Write(data)
}

// ResponseCache serves successful GET list responses from redis. Write paths
// invalidate the whole key namespace through the services, so staleness is
// bounded by the TTL only between a hit and a concurrent external write.
// Report endpoints must not be routed through this middleware.
func ResponseCache(cache *repository.CacheRepository, metrics *service.MetricsService, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKeyPrefix + c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			key += "?" + raw
		}

		var cached cachedResponse
		err := cache.Get(c.Request.Context(), key, &cached)
		if err == nil {
			metrics.RecordCacheLookup(true)
			c.Header("X-Cache", "HIT")
			c.Data(cached.Status, cached.ContentType, cached.Body)
			c.Abort()
			return
		}
		if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			// Redis trouble should not take list endpoints down.
			c.Next()
			return
		}
		metrics.RecordCacheLookup(false)

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		if c.Writer.Status() != http.StatusOK || len(writer.body) == 0 {
			return
		}
		_ = cache.Set(c.Request.Context(), key, cachedResponse{
			Status:      c.Writer.Status(),
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        writer.body,
		}, ttl)
	}
}
