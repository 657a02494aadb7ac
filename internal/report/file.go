package report

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteReportFile stores the report text as <team>_<kind>_<yyyymmdd>.md and,
// when chart is non-nil, the chart next to it as a .png.
func WriteReportFile(content string, chart []byte, outputDir string, kind Kind, reportDate time.Time, teamName string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	base := fmt.Sprintf("%s_%s_%s", sanitizeFilename(teamName), kind, reportDate.Format("20060102"))
	path := filepath.Join(outputDir, base+".md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	if chart != nil {
		if err := os.WriteFile(filepath.Join(outputDir, base+".png"), chart, 0644); err != nil {
			return path, err
		}
	}
	return path, nil
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_")
	return replacer.Replace(s)
}

// FileWriter delivers reports to the local output directory.
type FileWriter struct {
	Dir      string
	TeamName string
}

func (f FileWriter) Name() string { return "file" }

func (f FileWriter) Deliver(_ context.Context, msg Message) error {
	path, err := WriteReportFile(msg.Text, msg.Chart, f.Dir, msg.Result.Kind, msg.Result.Current.Start, f.TeamName)
	if err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}
	log.Printf("report file written path=%s", path)
	return nil
}
