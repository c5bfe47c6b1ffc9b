package intel

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"honeypot-lab/internal/infrastructure/cache"
	"honeypot-lab/internal/infrastructure/database"
)

const serviceName = "honeypot.v1.DecoyAgentService"

// RegisterHealthServer registers the gRPC health check service and starts a
// background checker that tracks Postgres/Redis reachability.
func RegisterHealthServer(ctx context.Context, grpcServer *grpc.Server, db *database.PostgresDB, redisCache *cache.RedisCache) {
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			healthy := true
			if db != nil {
				if err := db.Ping(ctx); err != nil {
					healthy = false
				}
			}
			if redisCache != nil {
				if err := redisCache.Client().Ping(ctx).Err(); err != nil {
					healthy = false
				}
			}

			status := grpc_health_v1.HealthCheckResponse_SERVING
			if !healthy {
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
			healthServer.SetServingStatus("", status)
			healthServer.SetServingStatus(serviceName, status)
		}
	}()
}
