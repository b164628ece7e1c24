package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"newsbot/internal/model"
	"newsbot/internal/scheduler"
)

// FormatPost renders a delivered item for HTML parse mode.
func FormatPost(title, link string) string {
	return "<b>" + html.EscapeString(title) + "</b>\n" + html.EscapeString(link)
}

// FormatRecent renders several posts in a single message, newest first.
func FormatRecent(posts []model.Post) string {
	parts := make([]string, 0, len(posts))
	for _, p := range posts {
		parts = append(parts, FormatPost(p.Title, p.Link))
	}
	return strings.Join(parts, "\n\n")
}

// Status is the data shown by /status.
type Status struct {
	Subscribers int
	Running     bool
	Last        *scheduler.CycleReport
}

// FormatStatus formats the bot status for display.
func FormatStatus(st Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subscribers: %d\n", st.Subscribers)

	if st.Last == nil {
		b.WriteString("No check has finished yet.\n")
	} else {
		r := st.Last
		fmt.Fprintf(&b, "Last check: %s (%s)\n",
			r.FinishedAt.UTC().Format("2006-01-02 15:04 UTC"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
		fmt.Fprintf(&b, "Sources: %d, failed: %d\n", len(r.Sources), r.FailedSources())
		fmt.Fprintf(&b, "Delivered items: %d\n", r.Delivered())
		if r.Err != "" {
			fmt.Fprintf(&b, "Aborted: %s\n", r.Err)
		}
	}

	if st.Running {
		b.WriteString("A check is running now.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
