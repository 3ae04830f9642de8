package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	addr := pflag.StringP("addr", "a", "127.0.0.1:9527", "responder admin address")
	pflag.Parse()
	conn, err := grpc.Dial(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	// 查询状态
	r, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "responder"})
	if err != nil {
		log.Fatalf("健康检查失败:%s", err.Error())
	}
	fmt.Printf("responder状态:%s\n", r.Status.String())
}
