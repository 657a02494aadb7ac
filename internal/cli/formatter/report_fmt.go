package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"timereport/internal/domain"
	"timereport/internal/storage/sqlite"
)

// Delta renders a signed hour difference, green when up and red when down.
func Delta(h domain.Hours) string {
	switch {
	case h > 0:
		return Render(StyleGreen, "+"+h.String())
	case h < 0:
		return Render(StyleRed, "-"+(-h).String())
	default:
		return Render(StyleDim, "0.00")
	}
}

// ComparisonTable lists every row followed by a bold total line.
func ComparisonTable(rows []domain.ComparisonRow, totals domain.ComparisonRow) string {
	headers := []string{"CATEGORY", "HOURS", "SHARE", "COUNT", "PREV HOURS", "PREV COUNT", "Δ HOURS", "Δ COUNT"}
	cells := make([][]string, 0, len(rows)+1)
	for _, r := range rows {
		cells = append(cells, comparisonCells(string(r.Category), r))
	}
	total := comparisonCells("Total", totals)
	for i := range total {
		total[i] = Render(StyleBold, total[i])
	}
	cells = append(cells, total)
	return RenderTable(headers, cells)
}

func comparisonCells(label string, r domain.ComparisonRow) []string {
	return []string{
		label,
		r.CurrentHours.String(),
		fmt.Sprintf("%.1f%%", r.Ratio),
		strconv.Itoa(r.CurrentCount),
		r.PreviousHours.String(),
		strconv.Itoa(r.PreviousCount),
		Delta(r.DiffHours),
		fmt.Sprintf("%+d", r.DiffCount),
	}
}

// RunsTable renders report history, newest first.
func RunsTable(runs []sqlite.Run, loc *time.Location) string {
	if len(runs) == 0 {
		return Render(StyleDim, "No report runs recorded.") + "\n"
	}
	if loc == nil {
		loc = time.Local
	}
	headers := []string{"STARTED", "KIND", "WINDOW", "STATUS", "RECORDS", "HOURS", "RUN ID", "ERROR"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := string(r.Status)
		switch r.Status {
		case sqlite.RunSucceeded:
			status = Render(StyleGreen, status)
		case sqlite.RunFailed:
			status = Render(StyleRed, status)
		}
		if r.DryRun {
			status += Render(StyleDim, " (dry)")
		}
		window := domain.TimeWindow{Start: r.Window.Start.In(loc), End: r.Window.End.In(loc)}
		rows = append(rows, []string{
			r.StartedAt.In(loc).Format("2006-01-02 15:04"),
			r.Kind,
			window.String(),
			status,
			strconv.Itoa(r.RecordCount),
			r.TotalHours.String(),
			r.ID,
			truncate(r.Error, 60),
		})
	}
	return RenderTable(headers, rows)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
