package grpc

import (
	"context"
	"fmt"
	"net"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"Paddlers/modules/kit/logx"
)

// ServiceName health 检查里登记的服务名。
const ServiceName = "paddlers.town"

// Server grpc 服务端，目前只挂标准 health 服务，给负载均衡和编排探活。
type Server struct {
	srv    *gogrpc.Server
	health *health.Server
}

func NewServer(log logx.Logger) *Server {
	if log == nil {
		log = logx.Nop()
	}
	srv := gogrpc.NewServer(
		gogrpc.ChainUnaryInterceptor(UnaryServerInterceptor(log)),
		gogrpc.ChainStreamInterceptor(StreamServerInterceptor(log)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{srv: srv, health: hs}
}

// SetServing 模拟运行时就绪后置为 SERVING，关闭前置回 NOT_SERVING。
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
}

// Serve 阻塞直到 Stop。
func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

// CheckHealth 拨号并查询服务状态，运维命令用。
func CheckHealth(ctx context.Context, target string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := gogrpc.NewClient(target,
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithChainUnaryInterceptor(UnaryClientTraceInterceptor()),
	)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
