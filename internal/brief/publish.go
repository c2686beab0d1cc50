package brief

import (
	"strings"

	"github.com/brieflyhq/briefly/internal/models"
)

// Publishable reports whether a brief may be shared: it needs a non-blank
// title and at least one question.
func Publishable(b *models.Brief) bool {
	if b == nil {
		return false
	}
	return strings.TrimSpace(b.Title) != "" && len(b.Questions) > 0
}

// ShareURL is the public, unauthenticated link to a brief's submission view.
func ShareURL(origin, briefID string) string {
	return strings.TrimRight(origin, "/") + "/share/" + briefID
}
