package env

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fx "github.com/robotalks/fclink/pkg/framework"
	"github.com/robotalks/fclink/pkg/l0/comm"
	"github.com/robotalks/fclink/pkg/telemetry"
)

// MetricsNamespace prefixes all exported metrics.
const MetricsNamespace = "fclink"

// Env is the running environment of a link daemon.
type Env struct {
	Config   *Config
	Conn     io.ReadWriteCloser
	Link     *comm.Link
	Registry *prometheus.Registry
}

// NewEnv opens the transport and builds the link.
func (c *Config) NewEnv(ctx context.Context) (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	conn, err := c.OpenTransport(ctx)
	if err != nil {
		return nil, fmt.Errorf("open link %s: %w", c.LinkURL, err)
	}
	e := &Env{
		Config:   c,
		Conn:     conn,
		Link:     c.NewLink(conn),
		Registry: prometheus.NewRegistry(),
	}
	e.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	e.Link.Metrics = comm.NewMetrics(MetricsNamespace, prometheus.Labels{"device": c.DeviceID}).
		MustRegister(e.Registry)
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv(context.TODO())
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddToScheduler implements fx.SchedulerAdder with the telemetry tasks.
func (e *Env) AddToScheduler(s *fx.Scheduler) {
	if interval := e.Config.HeartbeatInterval; interval > 0 {
		s.Add(
			telemetry.NewHeartbeat(e.Link, interval),
			telemetry.NewTxStatus(e.Link, e.Link.TX(), interval),
		)
	}
}

// Runnables returns the link and, when configured, the metrics endpoint.
func (e *Env) Runnables() []fx.Runnable {
	runners := []fx.Runnable{fx.NamedRun("link", e.Link)}
	if addr := e.Config.MetricsAddr; addr != "" {
		runners = append(runners, fx.NamedRun("metrics", &MetricsServer{Addr: addr, Gatherer: e.Registry}))
	}
	return runners
}

// Close flushes the link and closes the transport.
func (e *Env) Close() error {
	var errs fx.AggregatedError
	errs.Add(e.Link.Flush(), e.Conn.Close())
	return errs.Aggregate()
}

// MetricsServer serves prometheus metrics over HTTP.
type MetricsServer struct {
	Addr     string
	Gatherer prometheus.Gatherer
}

// Handler returns the HTTP handler of the metrics endpoint.
func (m *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Run implements fx.Runnable.
func (m *MetricsServer) Run(ctx context.Context) error {
	srv := &http.Server{Addr: m.Addr, Handler: m.Handler()}
	return fx.RunWithContextCancel(ctx, func() {
		srv.Close()
	}, func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}
