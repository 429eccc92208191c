// Package health поднимает gRPC-сервер со стандартным сервисом grpc.health.v1,
// по которому оркестратор проверяет готовность процесса.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server gRPC-сервер проверки готовности.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	service    string
	log        *slog.Logger
}

// New слушает address. service имя, под которым публикуется статус
// (пустая строка означает статус всего сервера). До вызова Serve статус NOT_SERVING.
func New(address, service string, log *slog.Logger) (*Server, error) {
	const op = "health.New"

	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewWithListener(lis, service, log), nil
}

// NewWithListener использует готовый listener.
func NewWithListener(lis net.Listener, service string, log *slog.Logger) *Server {
	hs := health.NewServer()
	hs.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	return &Server{
		grpcServer: grpcServer,
		health:     hs,
		listener:   lis,
		service:    service,
		log:        log,
	}
}

// Addr адрес, на котором слушает сервер.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve переводит статус в SERVING и обслуживает запросы до отмены ctx.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("gRPC health service listening on", slog.String("address", s.listener.Addr().String()))
		errCh <- s.grpcServer.Serve(s.listener)
	}()
	s.health.SetServingStatus(s.service, healthpb.HealthCheckResponse_SERVING)

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
