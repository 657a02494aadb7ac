package cli

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"timereport/internal/metrics"
	"timereport/internal/report"
	"timereport/internal/scheduler"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled reports and serve health, metrics and manual triggers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Runner == nil {
				return fmt.Errorf("report runner is not configured")
			}
			if addr == "" {
				addr = app.Config.HTTPAddr
			}
			return serve(cmd.Context(), app, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	return cmd
}

func serve(ctx context.Context, app *App, addr string) error {
	sched := scheduler.New(app.location())
	jobs := []struct {
		kind report.Kind
		spec string
	}{
		{report.KindDaily, app.Config.DailySchedule},
		{report.KindWeekly, app.Config.WeeklySchedule},
	}
	for _, j := range jobs {
		kind := j.kind
		err := sched.Add(string(kind), j.spec, func(ctx context.Context, at time.Time) {
			if _, err := app.Runner.Run(ctx, kind, at, report.RunOptions{}); err != nil {
				log.Printf("scheduled %s report failed: %v", kind, err)
			}
		})
		if err != nil {
			return err
		}
	}
	if sched.Len() == 0 {
		log.Printf("serve: no schedules configured, reports run only via POST /reports/{kind}")
	}

	gatherer := app.Gatherer
	if gatherer == nil {
		gatherer = prometheus.NewRegistry()
	}
	trigger := func(ctx context.Context, kind string) (string, error) {
		k, err := report.ParseKind(kind)
		if err != nil {
			return "", err
		}
		msg, err := app.Runner.Run(ctx, k, app.now().In(app.location()), report.RunOptions{})
		return msg.RunID, err
	}
	srv := metrics.NewServer(addr, metrics.NewRouter(gatherer, trigger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()
	err := metrics.Serve(ctx, srv)
	// A listen failure must stop the scheduler too.
	cancel()
	wg.Wait()
	return err
}
