package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"timereport/internal/chart"
	"timereport/internal/cli"
	"timereport/internal/cli/formatter"
	"timereport/internal/config"
	"timereport/internal/httpx"
	"timereport/internal/integrations/kafkabus"
	"timereport/internal/integrations/llm"
	"timereport/internal/integrations/mail"
	slackbot "timereport/internal/integrations/slack"
	"timereport/internal/metrics"
	"timereport/internal/report"
	"timereport/internal/source"
	"timereport/internal/stats"
	"timereport/internal/storage/sqlite"
)

func Main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Team=%s Source=%s Calendars=%d Timezone=%s WeekStart=%s Boundary=%s LLMProvider=%s Slack=%t Mail=%t Kafka=%t ExternalHTTPTimeout=%s",
		cfg.TeamName,
		cfg.SourceKind,
		len(cfg.CalendarURLs),
		cfg.Timezone,
		cfg.WeekStart,
		cfg.Boundary,
		cfg.LLMProvider,
		cfg.SlackConfigured(),
		cfg.MailConfigured(),
		cfg.KafkaConfigured(),
		appliedHTTPTimeout,
	)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	log.Printf("Database initialized at %s", cfg.DBPath)
	defer db.Close()

	if err := os.MkdirAll(cfg.ReportOutputDir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	log.Printf("Report output dir: %s", cfg.ReportOutputDir)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deliverers, closeDeliverers := buildDeliverers(cfg)
	defer closeDeliverers()

	runner := &report.Runner{
		Source:      buildSource(cfg, db),
		Extractor:   stats.NewExtractor(cfg.CategoryOpen, cfg.CategoryClose),
		Calendar:    report.CalendarFromConfig(cfg),
		TeamName:    cfg.TeamName,
		Commentator: buildCommentator(cfg),
		Chart:       chart.NewRenderer(cfg.TeamName),
		Deliverers:  deliverers,
		DB:          db,
		Metrics:     metrics.NewMetrics(reg),
	}

	fd := os.Stdout.Fd()
	formatter.Plain = !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(&cli.App{Config: cfg, Runner: runner, DB: db, Gatherer: reg})
	return root.ExecuteContext(ctx)
}

// buildCommentator returns nil for llm_provider none so disabled commentary
// is neither rendered nor counted as a fallback.
func buildCommentator(cfg config.Config) llm.Commentator {
	if cfg.LLMProvider == "none" {
		return nil
	}
	return llm.NewClient(cfg)
}

// buildSource reads the configured primary store plus every calendar feed.
func buildSource(cfg config.Config, db *sql.DB) source.Reader {
	var primary source.Reader
	switch cfg.SourceKind {
	case "sqlite":
		primary = sqlite.ActivityLogReader{DB: db, Location: cfg.Location}
	default:
		primary = source.NewCSVReader(cfg.SourcePath, source.ColumnsFromConfig(cfg), cfg.Location)
	}
	snap := source.Snapshot{Primary: primary}
	for _, url := range cfg.CalendarURLs {
		snap.Calendars = append(snap.Calendars, source.NewICSReader(url, cfg.Location))
	}
	return snap
}

// buildDeliverers always writes files and adds each configured channel. The
// returned func releases channel resources.
func buildDeliverers(cfg config.Config) ([]report.Deliverer, func()) {
	deliverers := []report.Deliverer{report.FileWriter{Dir: cfg.ReportOutputDir, TeamName: cfg.TeamName}}
	closeAll := func() {}

	if cfg.SlackConfigured() {
		deliverers = append(deliverers, slackbot.NewDeliverer(cfg.SlackBotToken, cfg.SlackChannelID))
	}
	if cfg.MailConfigured() {
		deliverers = append(deliverers, mail.NewDeliverer(cfg))
	}
	if cfg.KafkaConfigured() {
		pub := kafkabus.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.TeamName)
		deliverers = append(deliverers, pub)
		closeAll = func() {
			if err := pub.Close(); err != nil {
				log.Printf("kafka writer close failed: %v", err)
			}
		}
	}
	return deliverers, closeAll
}
