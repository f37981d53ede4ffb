package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/orgball2608/tweet-fetcher/internal/poller"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
)

type statusProvider interface {
	Status() poller.Status
}

type healthResponse struct {
	State string `json:"status"`
	poller.Status
}

type healthServer struct {
	srv    *http.Server
	logger logger.Logger
}

func newHealthServer(port int, status statusProvider, log logger.Logger) *healthServer {
	log = log.WithComponent("HealthServer")

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthCheckHandler(status, log))

	return &healthServer{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}
}

// Start binds the port synchronously so a taken port fails the app start.
func (h *healthServer) Start() error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.srv.Addr, err)
	}

	h.logger.Info(fmt.Sprintf("Starting server on %s", h.srv.Addr))

	go func() {
		if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Server failed", "error", err)
		}
	}()
	return nil
}

func (h *healthServer) Stop(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}

func healthCheckHandler(status statusProvider, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Health check request received", "Method", r.Method, "URL", r.URL.String())

		w.Header().Set("Content-Type", "application/json")
		resp := healthResponse{State: "ok", Status: status.Status()}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error("Failed to write response", "Error", err)
		}
	}
}
