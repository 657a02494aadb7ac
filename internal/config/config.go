package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"timereport/internal/domain"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

const maxCalendarURLs = 2

type Config struct {
	SourceKind           string `yaml:"source_kind"`
	SourcePath           string `yaml:"source_path"`
	SourceTitleColumn    int    `yaml:"source_title_column"`
	SourceDurationColumn int    `yaml:"source_duration_column"`
	SourceTimeColumn     int    `yaml:"source_timestamp_column"`

	CalendarURLs []string `yaml:"calendar_urls"`

	CategoryOpen  string `yaml:"category_open"`
	CategoryClose string `yaml:"category_close"`

	Timezone        string `yaml:"timezone"`
	WeekStartDay    string `yaml:"week_start_day"`
	WeekBoundary    string `yaml:"week_boundary"`
	DailyOffsetDays int    `yaml:"daily_offset_days"`
	// Scheduled runs use the fire time as the reference. Pair daily_schedule
	// with daily_offset_days: -1 and weekly_schedule with week_boundary:
	// lookback to report the period that just closed.
	DailySchedule  string `yaml:"daily_schedule"`
	WeeklySchedule string `yaml:"weekly_schedule"`

	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	LLMMaxAttempts  int    `yaml:"llm_max_attempts"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	SMTPHost     string   `yaml:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port"`
	SMTPUsername string   `yaml:"smtp_username"`
	SMTPPassword string   `yaml:"smtp_password"`
	MailFrom     string   `yaml:"mail_from"`
	MailTo       []string `yaml:"mail_to"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	DBPath                     string `yaml:"db_path"`
	ReportOutputDir            string `yaml:"report_output_dir"`
	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`
	HTTPAddr                   string `yaml:"http_addr"`
	TeamName                   string `yaml:"team_name"`

	Location  *time.Location      `yaml:"-"` // computed from Timezone
	WeekStart time.Weekday        `yaml:"-"` // computed from WeekStartDay
	Boundary  domain.WeekBoundary `yaml:"-"` // computed from WeekBoundary
}

// LoadConfig reads config.yaml (or $CONFIG_PATH) and exits on invalid settings.
func LoadConfig() Config {
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}

// Load reads the YAML file at path when it exists, applies environment
// overrides and defaults, then validates.
func Load(path string) (Config, error) {
	var cfg Config

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("error parsing %s: %w", path, err)
		}
		log.Printf("Loaded config from %s", path)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.SourceKind, "SOURCE_KIND")
	envOverride(&cfg.SourcePath, "SOURCE_PATH")
	envOverrideList(&cfg.CalendarURLs, "CALENDAR_URLS")
	envOverride(&cfg.CategoryOpen, "CATEGORY_OPEN")
	envOverride(&cfg.CategoryClose, "CATEGORY_CLOSE")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.WeekStartDay, "WEEK_START_DAY")
	envOverride(&cfg.WeekBoundary, "WEEK_BOUNDARY")
	envOverride(&cfg.DailySchedule, "DAILY_SCHEDULE")
	envOverride(&cfg.WeeklySchedule, "WEEKLY_SCHEDULE")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.SMTPHost, "SMTP_HOST")
	envOverride(&cfg.SMTPUsername, "SMTP_USERNAME")
	envOverride(&cfg.SMTPPassword, "SMTP_PASSWORD")
	envOverride(&cfg.MailFrom, "MAIL_FROM")
	envOverrideList(&cfg.MailTo, "MAIL_TO")
	envOverrideList(&cfg.KafkaBrokers, "KAFKA_BROKERS")
	envOverride(&cfg.KafkaTopic, "KAFKA_TOPIC")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.HTTPAddr, "HTTP_ADDR")
	envOverride(&cfg.TeamName, "TEAM_NAME")

	ints := []struct {
		field *int
		key   string
	}{
		{&cfg.SourceTitleColumn, "SOURCE_TITLE_COLUMN"},
		{&cfg.SourceDurationColumn, "SOURCE_DURATION_COLUMN"},
		{&cfg.SourceTimeColumn, "SOURCE_TIMESTAMP_COLUMN"},
		{&cfg.DailyOffsetDays, "DAILY_OFFSET_DAYS"},
		{&cfg.LLMMaxAttempts, "LLM_MAX_ATTEMPTS"},
		{&cfg.SMTPPort, "SMTP_PORT"},
		{&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS"},
	}
	for _, it := range ints {
		if err := envOverrideInt(it.field, it.key); err != nil {
			return err
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.SourceKind == "" {
		cfg.SourceKind = "csv"
	}
	// Columns are 1-based in config; zero means "use the default layout"
	// of title, duration, timestamp.
	if cfg.SourceTitleColumn == 0 {
		cfg.SourceTitleColumn = 1
	}
	if cfg.SourceDurationColumn == 0 {
		cfg.SourceDurationColumn = 2
	}
	if cfg.SourceTimeColumn == 0 {
		cfg.SourceTimeColumn = 3
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.LLMMaxAttempts == 0 {
		cfg.LLMMaxAttempts = 3
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./timereport.db"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.TeamName == "" {
		cfg.TeamName = "Activity"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
}

func validate(cfg *Config) error {
	switch cfg.SourceKind {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("source_kind must be 'csv' or 'sqlite', got '%s'", cfg.SourceKind)
	}
	if cfg.SourceKind == "csv" && strings.TrimSpace(cfg.SourcePath) == "" {
		return fmt.Errorf("required config 'source_path' is not set (via config.yaml or env var)")
	}
	for name, col := range map[string]int{
		"source_title_column":     cfg.SourceTitleColumn,
		"source_duration_column":  cfg.SourceDurationColumn,
		"source_timestamp_column": cfg.SourceTimeColumn,
	} {
		if col < 1 {
			return fmt.Errorf("invalid %s '%d': must be >= 1", name, col)
		}
	}
	if len(cfg.CalendarURLs) > maxCalendarURLs {
		return fmt.Errorf("at most %d calendar_urls are supported, got %d", maxCalendarURLs, len(cfg.CalendarURLs))
	}

	switch cfg.LLMProvider {
	case "anthropic", "openai", "none":
	default:
		return fmt.Errorf("llm_provider must be 'anthropic', 'openai' or 'none', got '%s'", cfg.LLMProvider)
	}
	if cfg.LLMMaxAttempts < 1 || cfg.LLMMaxAttempts > 5 {
		return fmt.Errorf("invalid llm_max_attempts '%d': must be between 1 and 5", cfg.LLMMaxAttempts)
	}
	if !cfg.CommentaryConfigured() && cfg.LLMProvider != "none" {
		log.Printf("WARNING: no API key for llm_provider=%s, commentary will use the fallback text", cfg.LLMProvider)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	weekStart, err := domain.ParseWeekStart(cfg.WeekStartDay)
	if err != nil {
		return fmt.Errorf("invalid week_start_day: %w", err)
	}
	cfg.WeekStart = weekStart
	boundary, err := domain.ParseWeekBoundary(cfg.WeekBoundary)
	if err != nil {
		return fmt.Errorf("invalid week_boundary: %w", err)
	}
	cfg.Boundary = boundary

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for name, spec := range map[string]string{"daily_schedule": cfg.DailySchedule, "weekly_schedule": cfg.WeeklySchedule} {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, spec, err)
		}
	}
	if strings.TrimSpace(cfg.DailySchedule) != "" && cfg.DailyOffsetDays >= 0 {
		log.Printf("WARNING: daily_schedule with daily_offset_days=%d reports the day the run fires on; set -1 for the previous day", cfg.DailyOffsetDays)
	}
	if strings.TrimSpace(cfg.WeeklySchedule) != "" && cfg.Boundary == domain.BoundaryStartsWeek {
		log.Printf("WARNING: weekly_schedule with week_boundary=start reports the week the run fires in; set lookback for the week that just ended")
	}

	smtpFields := map[string]string{
		"smtp_host": cfg.SMTPHost,
		"mail_from": cfg.MailFrom,
	}
	smtpSet := 0
	for _, v := range smtpFields {
		if v != "" {
			smtpSet++
		}
	}
	if len(cfg.MailTo) > 0 {
		smtpSet++
	}
	if smtpSet > 0 && smtpSet < len(smtpFields)+1 {
		return fmt.Errorf("partial mail config: smtp_host, mail_from and mail_to are required together")
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return fmt.Errorf("kafka_brokers is set but kafka_topic is not")
	}

	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		return fmt.Errorf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds)
	}
	if !cfg.SlackConfigured() && !cfg.MailConfigured() && !cfg.KafkaConfigured() {
		log.Printf("WARNING: no delivery channel configured, reports are only written to %s", cfg.ReportOutputDir)
	}
	return nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideList(field *[]string, envKey string) {
	raw := os.Getenv(envKey)
	if raw == "" {
		return
	}
	*field = nil
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			*field = append(*field, v)
		}
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func (c Config) CommentaryConfigured() bool {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	}
	return false
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}

func (c Config) MailConfigured() bool {
	return c.SMTPHost != "" && c.MailFrom != "" && len(c.MailTo) > 0
}

func (c Config) KafkaConfigured() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaTopic != ""
}
