package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Keys written into the envelope meta of planner responses.
const (
	MetaCacheHit        = "cache_hit"
	MetaProcessingTime  = "processing_time_ms"
	MetaAgendaMode      = "agenda_mode"
	MetaSkippedMeetings = "skipped_meetings"
	MetaRefreshAt       = "refresh_at"
)

const plannerMetaKey = "planner_meta"

// WithResponseMeta gives every request a meta map and stamps the processing
// time unless the handler already did.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(plannerMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, ok := meta[MetaProcessingTime]; !ok {
			meta[MetaProcessingTime] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit records whether the served agenda came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[MetaCacheHit] = hit
}

// SetAgendaMeta records the recurrence mode an agenda was built in, how many
// meetings were left out of it and when the client should ask again.
func SetAgendaMeta(c *gin.Context, mode string, skipped int, refreshAt *time.Time) {
	meta := ensureMeta(c)
	meta[MetaAgendaMode] = mode
	meta[MetaSkippedMeetings] = skipped
	if refreshAt != nil {
		meta[MetaRefreshAt] = refreshAt.UTC().Format(time.RFC3339)
	} else {
		delete(meta, MetaRefreshAt)
	}
}

// ExtractMeta returns the meta map of the request, or nil when none was set.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, ok := c.Get(plannerMetaKey); ok {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	if c != nil {
		c.Set(plannerMetaKey, meta)
	}
	return meta
}
