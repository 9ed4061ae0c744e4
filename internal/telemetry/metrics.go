package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"svgjsx/internal/jsx"
	"svgjsx/internal/logging"
)

// Origin labels.
const (
	OriginCLI      = "cli"
	OriginGRPC     = "grpc"
	OriginPipeline = "pipeline"
	OriginWatch    = "watch"
)

var (
	Registry = prometheus.NewRegistry()

	conversions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "svgjsx_conversions_total",
		Help: "SVG to JSX conversions by output mode and caller.",
	}, []string{"mode", "origin"})

	fragmentWraps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "svgjsx_fragment_wraps_total",
		Help: "Conversions whose output was wrapped in a <>...</> fragment.",
	})

	emptyOutputs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "svgjsx_empty_outputs_total",
		Help: "Conversions that produced no output.",
	}, []string{"origin"})

	convertSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "svgjsx_convert_seconds",
		Help:    "Time spent in the rewrite pipeline.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})

	frames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "svgjsx_frames_total",
		Help: "Pipeline frames by outcome (converted, dropped, failed).",
	}, []string{"outcome"})
)

func init() {
	Registry.MustRegister(conversions, fragmentWraps, emptyOutputs, convertSeconds, frames)
}

// Convert runs the rewrite pipeline and records it under origin.
func Convert(origin, input string, m jsx.Mode) string {
	start := time.Now()
	out := jsx.Transform(input, m)
	convertSeconds.Observe(time.Since(start).Seconds())

	conversions.WithLabelValues(m.String(), origin).Inc()
	if strings.HasPrefix(out, "<>") && strings.HasSuffix(out, "</>") {
		fragmentWraps.Inc()
	}
	if !jsx.HasOutput(out) {
		emptyOutputs.WithLabelValues(origin).Inc()
	}
	return out
}

func Frame(outcome string) { frames.WithLabelValues(outcome).Inc() }

// Server serves /metrics until Shutdown.
type Server struct {
	srv *http.Server
}

func Expose(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	s := &Server{srv: &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.For("telemetry").Error("metrics listener stopped", "port", port, "err", err)
		}
	}()
	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
