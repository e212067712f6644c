// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"cattle-certification-api-server/config"
	"cattle-certification-api-server/internal/accounts"
	"cattle-certification-api-server/internal/api/routes"
	"cattle-certification-api-server/internal/auth"
	"cattle-certification-api-server/internal/blockchain"
	"cattle-certification-api-server/internal/database"
	"cattle-certification-api-server/internal/documents"
	"cattle-certification-api-server/internal/events"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/lots"
	"cattle-certification-api-server/internal/render"
	"cattle-certification-api-server/internal/requests"
	"cattle-certification-api-server/internal/s3"
	"cattle-certification-api-server/internal/scheduler"
	"cattle-certification-api-server/internal/socket"
	"cattle-certification-api-server/internal/wallet"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	appLog := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    "cattle-certification-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Kết nối MongoDB, tạo index và dữ liệu tham chiếu
	client, db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			appLog.Warn("failed to disconnect mongo", map[string]any{"error": err})
		}
	}()
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	st := database.NewStore(db)
	if err := database.SeedReferenceData(ctx, st.Localities, appLog); err != nil {
		log.Fatalf("Failed to seed reference data: %v", err)
	}

	// 3. Lưu trữ file trên S3
	uploader, err := s3.NewUploader(ctx, cfg.S3)
	if err != nil {
		log.Fatalf("Failed to create S3 uploader: %v", err)
	}

	// 4. Thông báo: WebSocket cho người dùng, Kafka cho audit (nếu có broker)
	hub := socket.NewHub(appLog)
	publishers := events.Multi{events.HubPublisher{Hub: hub}}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			log.Fatalf("Failed to create Kafka publisher: %v", err)
		}
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
	}

	// 5. Kết nối blockchain
	rpc, err := blockchain.Initialize(ctx, cfg.Blockchain)
	if err != nil {
		log.Fatalf("Failed to initialize blockchain client: %v", err)
	}
	defer rpc.Close()
	ledger, err := blockchain.NewCertificationService(rpc, cfg.Blockchain, appLog)
	if err != nil {
		log.Fatalf("Failed to initialize certification service: %v", err)
	}

	// 6. Ví custodial và xác thực
	vault, err := wallet.NewVault(cfg.Wallet.EncryptionKey)
	if err != nil {
		log.Fatalf("Invalid wallet encryption key: %v", err)
	}
	wallets := wallet.NewProvisioner(vault, st.Wallets)

	ttl, _ := cfg.JWTTTL()
	tokens, err := auth.NewManager(cfg.JWT.Secret, ttl)
	if err != nil {
		log.Fatalf("Failed to create token manager: %v", err)
	}

	// 7. Các service nghiệp vụ
	loc, _ := cfg.Scheduler.Location()
	sched := scheduler.New(st.Vets, st.Requests, loc, appLog)
	pipeline := documents.NewPipeline(documents.Deps{
		Store:    st,
		Files:    uploader,
		Renderer: render.NewPDFRenderer(),
		Ledger:   ledger,
		Keys:     wallets,
		Events:   publishers,
		Log:      appLog,
	})
	lotService := lots.NewService(lots.Deps{
		Store:    st,
		Files:    uploader,
		Pipeline: pipeline,
		Events:   publishers,
		Log:      appLog,
	})
	requestService := requests.NewService(requests.Deps{
		Store:     st,
		Files:     uploader,
		Scheduler: sched,
		Events:    publishers,
		Log:       appLog,
	})
	accountService := accounts.NewService(st, wallets, tokens, appLog)

	// 8. Truyền tất cả các thành phần cần thiết vào router
	router := routes.SetupRouter(routes.Deps{
		Config:   cfg,
		Store:    st,
		Tokens:   tokens,
		Accounts: accountService,
		Requests: requestService,
		Lots:     lotService,
		Ledger:   ledger,
		Hub:      hub,
		Log:      appLog,
		HealthCheck: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	})

	// 9. Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLog.Info("starting API server", map[string]any{"port": cfg.Server.Port, "network": ledger.Network().Name})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("graceful shutdown failed", map[string]any{"error": err})
	}
}
