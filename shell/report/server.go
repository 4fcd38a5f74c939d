package report

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caffinitas/barker/loadgen"
	"github.com/caffinitas/barker/timeline"
)

const shutdownTimeout = 5 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatsSource yields the load generator counters. *loadgen.Controller satisfies it.
type StatsSource interface {
	Stats() loadgen.Stats
}

// StatsDocument is the body of GET /stats.
type StatsDocument struct {
	Registry timeline.Snapshot `json:"registry"`
	Load     *loadgen.Stats    `json:"load,omitempty"`
}

// Server is the HTTP listener for /stats and /metrics.
type Server struct {
	listener net.Listener
	server   *http.Server
	done     chan error
}

// NewHandler builds the routes. load and gatherer may be nil; /metrics then serves an empty exposition.
func NewHandler(registry *timeline.Registry, load StatsSource, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.NewRegistry()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, _ *http.Request) {
		doc := StatsDocument{Registry: registry.Snapshot()}
		if load != nil {
			stats := load.Stats()
			doc.Load = &stats
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}

// Listen binds address (port 0 picks a free port) and serves handler in the background.
func Listen(address string, handler http.Handler) (*Server, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener: listener,
		server:   &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second},
		done:     make(chan error, 1),
	}

	go func() {
		serveErr := s.server.Serve(listener)
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
		s.done <- serveErr
	}()

	return s, nil
}

// URL is the base URL of the bound listener.
func (s *Server) URL() string {
	return "http://" + s.listener.Addr().String()
}

// Close shuts the server down and returns the serve error, if any.
func (s *Server) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}

	return <-s.done
}
