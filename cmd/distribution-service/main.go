// cmd/distribution-service/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"promoflow/internal/pkg/bootstrap"
	"promoflow/internal/pkg/httpclient"
	"promoflow/internal/pkg/mq"
	"promoflow/internal/pkg/redis"
	"promoflow/internal/service/distribution/application"
	"promoflow/internal/service/distribution/infrastructure"
	"promoflow/internal/service/distribution/infrastructure/adapter"
	"promoflow/internal/service/distribution/interfaces"
	"promoflow/internal/zookeeper"
)

const serviceName = "coupon-distribution-service"

// main 函数是应用的"组装根" (Composition Root)：
// 创建并组装所有依赖项，然后启动 HTTP 服务和对账消费者。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	tracer := otel.Tracer(serviceName)

	// 基础设施客户端
	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		log.Fatalf("FATAL: failed to connect redis: %v", err)
	}

	db, err := infrastructure.NewMysqlDB(cfg.Infra.Mysql.DSN)
	if err != nil {
		log.Fatalf("FATAL: failed to connect mysql: %v", err)
	}

	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, 10*time.Second)
	if err != nil {
		log.Fatalf("FATAL: failed to connect zookeeper: %v", err)
	}

	writer := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topic)
	reader := mq.NewReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topic, cfg.Infra.Kafka.GroupID)

	// 出站适配器
	couponCache, err := infrastructure.NewRedisCouponCache(redisClient, cfg.Cache.TTLMinHours, cfg.Cache.TTLMaxHours)
	if err != nil {
		log.Fatalf("FATAL: invalid cache configuration: %v", err)
	}
	couponRepo := infrastructure.NewGormCouponRepository(db)
	producer := infrastructure.NewReconcileKafkaProducer(writer)
	locker := infrastructure.NewZkUserLockAdapter(zkConn)

	httpClient := httpclient.NewClient(tracer)
	templates := adapter.NewTemplateHTTPAdapter(httpClient, cfg.Services.TemplateBaseURL)
	settlement := adapter.NewSettlementHTTPAdapter(httpClient, cfg.Services.SettlementBaseURL)

	// 应用服务
	couponSvc := application.NewCouponApplicationService(
		couponRepo, couponCache, couponCache, templates, settlement, producer, locker, tracer,
	)
	reconcileSvc := application.NewReconcileService(couponRepo, tracer)

	// 对账消费者与业务接口同进程运行
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	consumer := infrastructure.NewReconcileConsumerAdapter(reader, reconcileSvc)
	consumer.Start(consumerCtx)

	handler := interfaces.NewCouponHandler(couponSvc)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        7002,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			cancelConsumer()
			consumer.Stop()
			if err := producer.Close(); err != nil {
				log.Printf("Error closing kafka producer: %v", err)
			}
			if err := redisClient.Close(); err != nil {
				log.Printf("Error closing redis client: %v", err)
			}
			zkConn.Close()
		},
	})
}
