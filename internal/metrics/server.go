package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TriggerFunc starts a report run of the given kind and returns its run ID.
type TriggerFunc func(ctx context.Context, kind string) (string, error)

type triggerResponse struct {
	RunID  string `json:"run_id,omitempty"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewRouter serves /healthz, /metrics from gatherer, and POST /reports/{kind}.
func NewRouter(gatherer prometheus.Gatherer, trigger TriggerFunc) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/reports/{kind:daily|weekly}", triggerHandler(trigger)).Methods(http.MethodPost)
	return r
}

func triggerHandler(trigger TriggerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := mux.Vars(r)["kind"]
		resp := triggerResponse{Kind: kind, Status: "succeeded"}
		code := http.StatusOK
		if trigger == nil {
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
		} else {
			// The run outlives a client that hangs up.
			runID, err := trigger(context.WithoutCancel(r.Context()), kind)
			resp.RunID = runID
			if err != nil {
				log.Printf("http trigger kind=%s run=%s failed: %v", kind, runID, err)
				resp.Status = "failed"
				resp.Error = err.Error()
				code = http.StatusBadGateway
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// NewServer wraps handler with request logging and panic recovery.
func NewServer(addr string, handler http.Handler) *http.Server {
	wrapped := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handler)
	return &http.Server{
		Addr:              addr,
		Handler:           handlers.LoggingHandler(os.Stdout, wrapped),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("http listening addr=%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
