package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"timereport/internal/domain"
)

func setMinimalValidConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SOURCE_PATH", "./activity.csv")
	t.Setenv("TIMEZONE", "UTC")
}

func missingConfigPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing-config.yaml")
}

func TestLoadFromEnvWithDefaults(t *testing.T) {
	setMinimalValidConfigEnv(t)

	cfg, err := Load(missingConfigPath(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SourceKind != "csv" {
		t.Fatalf("unexpected source kind default: %q", cfg.SourceKind)
	}
	if cfg.SourceTitleColumn != 1 || cfg.SourceDurationColumn != 2 || cfg.SourceTimeColumn != 3 {
		t.Fatalf("unexpected column defaults: %d %d %d", cfg.SourceTitleColumn, cfg.SourceDurationColumn, cfg.SourceTimeColumn)
	}
	if cfg.DBPath != "./timereport.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.ReportOutputDir != "./reports" {
		t.Fatalf("unexpected report output dir default: %q", cfg.ReportOutputDir)
	}
	if cfg.ExternalHTTPTimeoutSeconds != int(defaultExternalHTTPTimeout/time.Second) {
		t.Fatalf("unexpected external HTTP timeout default: %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.LLMProvider != "anthropic" || cfg.LLMMaxAttempts != 3 {
		t.Fatalf("unexpected llm defaults: provider=%q attempts=%d", cfg.LLMProvider, cfg.LLMMaxAttempts)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
	if cfg.WeekStart != time.Monday || cfg.Boundary != domain.BoundaryStartsWeek {
		t.Fatalf("unexpected week defaults: start=%s boundary=%s", cfg.WeekStart, cfg.Boundary)
	}
	if cfg.CommentaryConfigured() || cfg.SlackConfigured() || cfg.MailConfigured() || cfg.KafkaConfigured() {
		t.Fatal("expected optional integrations to be unconfigured")
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
source_kind: csv
source_path: "yaml.csv"
calendar_urls:
  - "https://calendar.example.com/a.ics"
timezone: "Asia/Tokyo"
week_start_day: sunday
week_boundary: lookback
daily_schedule: "0 22 * * *"
weekly_schedule: "0 7 * * 1"
llm_provider: openai
openai_api_key: "sk-yaml"
slack_bot_token: "xoxb-yaml"
slack_channel_id: "C123"
mail_to: ["a@example.com", "b@example.com"]
mail_from: "bot@example.com"
smtp_host: "smtp.example.com"
team_name: "Yaml Team"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SOURCE_PATH", "env.csv")
	t.Setenv("TEAM_NAME", "Env Team")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("KAFKA_TOPIC", "reports")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SourcePath != "env.csv" {
		t.Fatalf("expected env override for source path, got %q", cfg.SourcePath)
	}
	if cfg.TeamName != "Env Team" {
		t.Fatalf("expected env override for team name, got %q", cfg.TeamName)
	}
	if cfg.Location.String() != "Asia/Tokyo" {
		t.Fatalf("unexpected location %s", cfg.Location)
	}
	if cfg.WeekStart != time.Sunday || cfg.Boundary != domain.BoundaryLooksBack {
		t.Fatalf("unexpected week settings: start=%s boundary=%s", cfg.WeekStart, cfg.Boundary)
	}
	if !cfg.CommentaryConfigured() || !cfg.SlackConfigured() || !cfg.MailConfigured() || !cfg.KafkaConfigured() {
		t.Fatalf("expected all integrations configured: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected kafka brokers: %v", cfg.KafkaBrokers)
	}
	if len(cfg.CalendarURLs) != 1 {
		t.Fatalf("unexpected calendar urls: %v", cfg.CalendarURLs)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing source path", map[string]string{"SOURCE_PATH": ""}, "source_path"},
		{"unknown source kind", map[string]string{"SOURCE_KIND": "excel"}, "source_kind"},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}, "invalid timezone"},
		{"bad week start", map[string]string{"WEEK_START_DAY": "friday"}, "week_start_day"},
		{"bad boundary", map[string]string{"WEEK_BOUNDARY": "sideways"}, "week_boundary"},
		{"bad cron", map[string]string{"DAILY_SCHEDULE": "every day"}, "daily_schedule"},
		{"bad provider", map[string]string{"LLM_PROVIDER": "gemini"}, "llm_provider"},
		{"too many attempts", map[string]string{"LLM_MAX_ATTEMPTS": "9"}, "llm_max_attempts"},
		{"non-numeric int", map[string]string{"SMTP_PORT": "abc"}, "SMTP_PORT"},
		{"partial mail", map[string]string{"SMTP_HOST": "smtp.example.com"}, "partial mail config"},
		{"kafka without topic", map[string]string{"KAFKA_BROKERS": "k1:9092"}, "kafka_topic"},
		{"short timeout", map[string]string{"EXTERNAL_HTTP_TIMEOUT_SECONDS": "2"}, "external_http_timeout_seconds"},
		{"too many calendars", map[string]string{"CALENDAR_URLS": "a,b,c"}, "calendar_urls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalValidConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(missingConfigPath(t))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSQLiteSourceNeedsNoPath(t *testing.T) {
	t.Setenv("SOURCE_KIND", "sqlite")
	t.Setenv("TIMEZONE", "UTC")
	if _, err := Load(missingConfigPath(t)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestScheduleWarnsWhenReportingOpenPeriod(t *testing.T) {
	setMinimalValidConfigEnv(t)
	t.Setenv("DAILY_SCHEDULE", "0 9 * * *")
	t.Setenv("WEEKLY_SCHEDULE", "0 9 * * 1")
	logs := captureLog(t)

	if _, err := Load(missingConfigPath(t)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	out := logs.String()
	if !strings.Contains(out, "daily_schedule with daily_offset_days=0") {
		t.Fatalf("expected daily schedule warning, got:\n%s", out)
	}
	if !strings.Contains(out, "weekly_schedule with week_boundary=start") {
		t.Fatalf("expected weekly schedule warning, got:\n%s", out)
	}
}

func TestScheduleClosedPeriodDoesNotWarn(t *testing.T) {
	setMinimalValidConfigEnv(t)
	t.Setenv("DAILY_SCHEDULE", "0 9 * * *")
	t.Setenv("WEEKLY_SCHEDULE", "0 9 * * 1")
	t.Setenv("DAILY_OFFSET_DAYS", "-1")
	t.Setenv("WEEK_BOUNDARY", "lookback")
	logs := captureLog(t)

	cfg, err := Load(missingConfigPath(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Boundary != domain.BoundaryLooksBack || cfg.DailyOffsetDays != -1 {
		t.Fatalf("unexpected pairing: boundary=%s offset=%d", cfg.Boundary, cfg.DailyOffsetDays)
	}
	if strings.Contains(logs.String(), "_schedule with") {
		t.Fatalf("unexpected schedule warning:\n%s", logs.String())
	}
}
