package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/ekisa-team/tabserve/internal/service"
)

// Config holds the gRPC listener settings.
type Config struct {
	Port int
}

// Server serves grpc.health.v1.Health and tabserve.v1.Inference.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	addr   string
}

// NewServer registers the health and inference services.
func NewServer(cfg Config, svc *service.Inference) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingInterceptor, recoveryInterceptor),
	)

	hs := health.NewServer()
	servingStatus := healthpb.HealthCheckResponse_SERVING
	if err := svc.Ready(); err != nil {
		servingStatus = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", servingStatus)
	hs.SetServingStatus(InferenceServiceName, servingStatus)

	healthpb.RegisterHealthServer(srv, hs)
	srv.RegisterService(&inferenceServiceDesc, &inferenceService{service: svc})

	return &Server{
		grpc:   srv,
		health: hs,
		addr:   fmt.Sprintf(":%d", cfg.Port),
	}
}

// Start listens on the configured port and serves until Stop is called.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc: failed to listen on %s: %w", s.addr, err)
	}

	return s.Serve(lis)
}

// Serve serves on lis.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC server starting", "addr", lis.Addr().String())

	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("grpc server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight calls, falling back to a hard stop when ctx expires.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}

func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	attrs := []any{
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"latency", time.Since(start),
	}
	if err != nil {
		slog.Warn("gRPC call failed", append(attrs, "error", err)...)
	} else {
		slog.Debug("gRPC call served", attrs...)
	}

	return resp, err
}

func recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic recovered", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
			err = status.Errorf(codes.Internal, "internal error: %v", r)
		}
	}()

	return handler(ctx, req)
}
