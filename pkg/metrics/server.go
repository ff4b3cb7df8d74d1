package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itohio/rtlab/pkg/pipeline"
	"github.com/itohio/rtlab/pkg/report"
)

// Latest is the JSON form of the last reported record.
type Latest struct {
	Time     time.Time `json:"time"`
	Mean     uint32    `json:"mean"`
	Sum      uint64    `json:"sum"`
	Count    int       `json:"count"`
	Slots    []uint32  `json:"slots"`
	Actuated bool      `json:"actuated"`
	Tier     int       `json:"tier"`
	Fraction float32   `json:"fraction"`
}

// Status is the /status response.
type Status struct {
	Stats    pipeline.StatsSnapshot `json:"stats"`
	QueueLen int                    `json:"queue_len"`
	QueueCap int                    `json:"queue_cap"`
	Latest   *Latest                `json:"latest,omitempty"`
}

// Server serves /metrics, /status and /health for one pipeline.
type Server struct {
	pipeline   *pipeline.Pipeline
	registry   *prometheus.Registry
	collectors *Collectors
	router     *mux.Router

	mu     sync.RWMutex
	latest *Latest
}

// New creates a Server and subscribes it to p's reports.
func New(p *pipeline.Pipeline) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		pipeline:   p,
		registry:   reg,
		collectors: Register(reg, p),
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")
	r.HandleFunc("/status", s.getStatus).Methods("GET")
	r.HandleFunc("/health", s.getHealth).Methods("GET")
	s.router = r

	p.Reporter.OnReport(s.observe)
	return s
}

// Handler returns the router wrapped in an access log written to w.
// A nil w disables the access log.
func (s *Server) Handler(w io.Writer) http.Handler {
	if w == nil {
		return s.router
	}
	return handlers.LoggingHandler(w, s.router)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string, accessLog io.Writer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(accessLog),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Metrics listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) observe(rec report.Record) {
	s.collectors.Observe(rec)

	slots := make([]uint32, len(rec.Aggregate.Slots))
	for i, v := range rec.Aggregate.Slots {
		slots[i] = uint32(v)
	}
	latest := &Latest{
		Time:     rec.Time,
		Mean:     uint32(rec.Aggregate.Value()),
		Sum:      rec.Aggregate.Sum,
		Count:    rec.Aggregate.Count,
		Slots:    slots,
		Actuated: rec.Actuated,
		Tier:     rec.Actuation.Tier,
		Fraction: rec.Actuation.Fraction,
	}

	s.mu.Lock()
	s.latest = latest
	s.mu.Unlock()
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	status := Status{
		Stats:    s.pipeline.Stats.Snapshot(),
		QueueLen: s.pipeline.Queue.Len(),
		QueueCap: s.pipeline.Queue.Cap(),
		Latest:   latest,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Printf("Failed to encode status: %v", err)
	}
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}
