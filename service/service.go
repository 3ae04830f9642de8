// MIT License

// Copyright (c) 2023 wetrycode

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/wetrycode/responder"
	"github.com/wetrycode/responder/api"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var logger = responder.GetLogger("service")

// ServiceName gRPC健康检查中的服务名
const ServiceName = "responder"

var _ responder.EventHooksInterface = (*HealthHooks)(nil)

// Server 管理端口,同时提供gRPC健康检查和http管理接口
type Server struct {
	Device *responder.Device
	Host   string
	Port   int
	hooks  *HealthHooks
	health *health.Server
	api    *api.ResponderAPI
	grpc   *grpc.Server
}

// HealthHooks 根据响应循环的状态切换健康检查结果
type HealthHooks struct {
	health *health.Server
}

// NewHealthHooks 创建健康检查服务,响应循环启动之前为NOT_SERVING
func NewHealthHooks() *HealthHooks {
	h := &HealthHooks{health: health.NewServer()}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// NewServer hooks为nil时创建新的健康检查服务
func NewServer(device *responder.Device, host string, port int, hooks *HealthHooks) *Server {
	if hooks == nil {
		hooks = NewHealthHooks()
	}
	s := &Server{
		Device: device,
		Host:   host,
		Port:   port,
		hooks:  hooks,
		health: hooks.health,
		api:    api.NewAPI(device),
		grpc:   grpc.NewServer(),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// Hooks 需要通过responder.DeviceWithEventHooks注册到设备
func (s *Server) Hooks() *HealthHooks {
	return s.hooks
}

func (h *HealthHooks) Start() error {
	h.set(healthpb.HealthCheckResponse_SERVING)
	return nil
}

func (h *HealthHooks) Error(req *responder.Request, err error) error {
	return nil
}

func (h *HealthHooks) Exit(err error) error {
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return nil
}

func (h *HealthHooks) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Handler gRPC请求交给grpc server,其它请求交给管理接口
func (s *Server) Handler() http.Handler {
	return s.grpcHandlerFunc(s.grpc, s.api.G)
}

// Start 监听Host:Port直到ctx结束
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.Host, s.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("shutdown admin server error %s", err.Error())
		}
	}()
	logger.Infof("Server listen on:http://%s", lis.Addr().String())
	err := server.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) grpcHandlerFunc(grpcServer *grpc.Server, otherHandler http.Handler) http.Handler {
	return h2c.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ProtoMajor == 2 && strings.Contains(r.Header.Get("Content-Type"), "application/grpc") {
			grpcServer.ServeHTTP(w, r)
		} else {
			otherHandler.ServeHTTP(w, r)
		}
	}), &http2.Server{})
}
