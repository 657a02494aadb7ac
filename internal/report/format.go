package report

import (
	"fmt"
	"strings"

	"timereport/internal/domain"
)

func kindLabel(k Kind) string {
	if k == KindDaily {
		return "Daily"
	}
	return "Weekly"
}

// Title is the subject line shared by every delivery channel.
func Title(res Result, teamName string) string {
	if res.Kind == KindDaily {
		return fmt.Sprintf("%s report: %s %s", kindLabel(res.Kind), teamName, res.Current.Start.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s report: %s %s", kindLabel(res.Kind), teamName, res.Current)
}

func signedHours(h domain.Hours) string {
	if h < 0 {
		return "-" + (-h).String() + "h"
	}
	return "+" + h.String() + "h"
}

// FormatText renders the report body as light markdown (### headings, "- "
// bullets, **bold**) which both Slack and the email converter understand.
func FormatText(res Result, teamName, commentary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", Title(res, teamName))
	fmt.Fprintf(&b, "Period: %s (previous: %s)\n", res.Current, res.Previous)

	t := res.Totals
	fmt.Fprintf(&b, "Total: **%sh** across %d records (%s, %+d records)\n",
		t.CurrentHours, t.CurrentCount, signedHours(t.DiffHours), t.DiffCount)
	b.WriteString("\n")

	if len(res.Rows) == 0 {
		b.WriteString("No categorized activity in either period.\n")
	}
	for _, r := range res.Rows {
		fmt.Fprintf(&b, "- **%s** %sh (%.1f%%), %d records, %s / %+d vs previous\n",
			r.Category, r.CurrentHours, r.Ratio, r.CurrentCount, signedHours(r.DiffHours), r.DiffCount)
	}

	if strings.TrimSpace(commentary) != "" {
		b.WriteString("\n### Commentary\n")
		b.WriteString(strings.TrimSpace(commentary))
		b.WriteString("\n")
	}
	return b.String()
}
