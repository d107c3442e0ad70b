package api

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// conflictEvent holds data for a conflict SSE event.
type conflictEvent struct {
	ID           uint   `json:"id"`
	Schedule1ID  string `json:"schedule1_id"`
	Schedule2ID  string `json:"schedule2_id"`
	ConflictType string `json:"conflict_type"`
	Count        int64  `json:"count"`
}

// handleSSE streams newly detected schedule conflicts to the client.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		// Without a DB there is nothing to poll; handshake only.
		if db == nil {
			return
		}

		// Get the current max ID so we only alert on NEW conflicts.
		var lastSeenID uint
		var maxConflict models.ScheduleConflict
		if err := db.Where("resolved = ?", false).
			Order("id DESC").Limit(1).First(&maxConflict).Error; err == nil {
			lastSeenID = maxConflict.ID
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				var newConflicts []models.ScheduleConflict
				db.Where("resolved = ? AND id > ?", false, lastSeenID).
					Order("id ASC").
					Find(&newConflicts)

				if len(newConflicts) == 0 {
					continue
				}

				lastSeenID = newConflicts[len(newConflicts)-1].ID

				// Total unresolved count.
				var count int64
				db.Model(&models.ScheduleConflict{}).
					Where("resolved = ?", false).
					Count(&count)

				latest := newConflicts[len(newConflicts)-1]
				writeSSE(c.Writer, "conflict", conflictEvent{
					ID:           latest.ID,
					Schedule1ID:  latest.Schedule1ID,
					Schedule2ID:  latest.Schedule2ID,
					ConflictType: latest.ConflictType,
					Count:        count,
				})
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
