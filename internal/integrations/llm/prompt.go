package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"timereport/internal/domain"
)

const commentarySystemPrompt = `You review a team's time-tracking report.
You receive one JSON array. Each element is a category with the current and previous period's record count and hours, the signed differences, and the category's share of current hours in percent.
Write 2-4 plain sentences: name where most time went, the largest increases and decreases, and anything that looks unusual.
Do not restate every number. Do not use headings or bullet lists.`

func buildCommentaryPrompts(team string, rows []domain.ComparisonRow) (string, string, error) {
	if rows == nil {
		rows = []domain.ComparisonRow{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", "", fmt.Errorf("marshaling rows: %w", err)
	}

	var b strings.Builder
	if team != "" {
		fmt.Fprintf(&b, "Team: %s\n", team)
	}
	if len(rows) == 0 {
		b.WriteString("No categorized time was recorded in either period.\n")
	}
	b.WriteString("Comparison:\n")
	b.Write(data)
	return commentarySystemPrompt, b.String(), nil
}
