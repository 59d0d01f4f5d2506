package debugws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/zeusync/skilltree/internal/core/observability/log"
)

// Server runs a Hub on its own listener.
type Server struct {
	hub    *Hub
	server *http.Server
	log    log.Log
}

func NewServer(addr string, hub *Hub, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	return &Server{
		hub: hub,
		server: &http.Server{
			Addr:              addr,
			Handler:           hub.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger.Named("debugws"),
	}
}

// Start listens and serves in the background. The listener is bound before
// Start returns.
func (s *Server) Start() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("debug server stopped", log.Error(err))
		}
	}()
	s.log.Info("debug server listening", log.String("addr", ln.Addr().String()))
	return ln.Addr(), nil
}

// Stop disconnects clients and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Close()
	return s.server.Shutdown(ctx)
}
