package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brieflyhq/briefly/internal/brief"
	"github.com/brieflyhq/briefly/internal/middleware"
)

//
// --- Brief Dashboard ---
//

// DashboardStats are the KPI tiles above the brief list.
type DashboardStats struct {
	Briefs      int `json:"briefs"`
	Responses   int `json:"responses"`
	Publishable int `json:"publishable"`
	Drafts      int `json:"drafts"` // not yet publishable
}

// ListBriefs returns the caller's briefs, newest first, each with its
// response count, plus the dashboard totals.
// GET /v1/briefs
func (h *Handlers) ListBriefs(c *gin.Context) {
	// 1. Briefs with response counts
	briefs, err := h.Briefs.ListByOwner(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		serverError(c, "Failed to load briefs", err)
		return
	}

	// 2. Totals
	stats := DashboardStats{Briefs: len(briefs)}
	for i := range briefs {
		stats.Responses += briefs[i].ResponseCount
		if brief.Publishable(&briefs[i]) {
			stats.Publishable++
		} else {
			stats.Drafts++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"briefs": briefs,
		"totals": stats,
	})
}
