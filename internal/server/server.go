package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/thewh1teagle/dmlcheck/internal/directml"
)

// Prober runs one DirectML capability check.
type Prober interface {
	Check() directml.Result
}

type Server struct {
	mux   *http.ServeMux
	api   huma.API
	probe Prober
}

// New builds the capability API around probe.
func New(probe Prober, version string) *Server {
	mux := http.NewServeMux()
	s := &Server{
		mux:   mux,
		api:   humago.New(mux, huma.DefaultConfig("dmlcheck", version)),
		probe: probe,
	}
	s.register(s.api)
	return s
}

func (s *Server) register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness check",
	}, s.handleHealth)

	huma.Register(api, huma.Operation{
		OperationID: "directml-capability",
		Method:      http.MethodGet,
		Path:        "/v1/capabilities/directml",
		Summary:     "Probe DirectML support",
	}, s.handleDirectML)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func ListenAndServe(addr string, s *Server) error {
	slog.Info("listening", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
