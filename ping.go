package folio

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
)

type pingTable struct {
	Table      string `json:"table"`
	Status     string `json:"status"`
	DurationMs int64  `json:"durationMs"`
}

type pingResponse struct {
	Message        string      `json:"message"`
	Timestamp      time.Time   `json:"timestamp"`
	ProjectsStatus string      `json:"projectsStatus"`
	PostsStatus    string      `json:"postsStatus"`
	Tables         []pingTable `json:"tables"`
}

// handlePing reads one row from each content table on demand. Table failures
// are reported in the body; the request itself still succeeds.
func (a *App) handlePing(c echo.Context) error {
	results := a.Pinger.PingOnce(c.Request().Context())

	resp := pingResponse{
		Message:   "Database ping complete",
		Timestamp: time.Now().UTC(),
		Tables:    make([]pingTable, 0, len(results)),
	}
	for _, r := range results {
		t := pingTable{Table: r.Table, Status: "ok", DurationMs: r.Duration.Milliseconds()}
		if !r.OK() {
			t.Status = "error"
		}
		switch r.Table {
		case content.ProjectsTable:
			resp.ProjectsStatus = t.Status
		case content.PostsTable:
			resp.PostsStatus = t.Status
		}
		resp.Tables = append(resp.Tables, t)
	}
	return c.JSON(http.StatusOK, resp)
}
