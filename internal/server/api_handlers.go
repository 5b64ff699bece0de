package server

import (
	"context"
	"log/slog"
)

type HealthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

type CapabilityOutput struct {
	Body struct {
		Supported bool   `json:"supported"`
		Stage     string `json:"stage" enum:"none,d3d12,directml,panic" doc:"Step at which the probe stopped"`
	}
}

// handleHealth always succeeds while the process is alive.
func (s *Server) handleHealth(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// handleDirectML runs a fresh probe per request; nothing is cached.
func (s *Server) handleDirectML(ctx context.Context, _ *struct{}) (*CapabilityOutput, error) {
	res := s.probe.Check()
	if res.Err != nil {
		slog.Debug("directml probe failed", "stage", res.Stage, "error", res.Err)
	} else if !res.Supported {
		slog.Debug("directml probe failed", "stage", res.Stage, "status", res.Status)
	}

	out := &CapabilityOutput{}
	out.Body.Supported = res.Supported
	out.Body.Stage = string(res.Stage)
	return out, nil
}
