package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"flashmatch/api"
	"flashmatch/domain/orderbook"
	"flashmatch/engine"
	"flashmatch/gateway"
	"flashmatch/infra/config"
	"flashmatch/infra/journal"
	"flashmatch/infra/logging"
	"flashmatch/infra/memory"
	"flashmatch/infra/queue"
	"flashmatch/infra/sequence"
	"flashmatch/jobs/broadcaster"
	"flashmatch/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	var cfg *config.Config
	if _, err := os.Stat(*configPath); err == nil {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---------------- Core ----------------

	ring, err := queue.New[*orderbook.Order](cfg.Ingest.RingCapacity)
	if err != nil {
		logger.Fatal("ring init failed", zap.Error(err))
	}

	pool := memory.NewPool(func() *orderbook.Order {
		return &orderbook.Order{}
	})
	orderSeq := sequence.New(0)
	execSeq := sequence.New(0)

	eng := engine.New()

	// ---------------- Journal + broadcaster ----------------

	var j *journal.Journal
	if cfg.Broadcast.Enabled {
		j, err = journal.Open(cfg.Broadcast.JournalDir)
		if err != nil {
			logger.Fatal("journal open failed", zap.Error(err))
		}
		defer j.Close()
	}

	// ---------------- Service ----------------

	svc := service.New(
		eng,
		ring,
		pool,
		execSeq,
		j,
		logger,
		cfg.Engine.DepthLevels,
		cfg.SnapshotInterval(),
	)

	// Warmup before the consumer starts so the preload never races it.
	if cfg.Engine.WarmupCSV != "" {
		n := 0
		err := gateway.LoadCSV(cfg.Engine.WarmupCSV, func(o orderbook.Order) error {
			resting := o
			resting.SeqID = orderSeq.Next()
			svc.Preload(&resting)
			n++
			return nil
		})
		if err != nil {
			logger.Fatal("warmup load failed", zap.Error(err))
		}
		logger.Info("warmup complete", zap.Int("orders", n))
	}

	svc.Start(ctx)

	if cfg.Broadcast.Enabled {
		bc, err := broadcaster.New(
			j,
			cfg.Broadcast.Brokers,
			cfg.Broadcast.Topic,
			cfg.ReplayInterval(),
			logger,
		)
		if err != nil {
			logger.Fatal("broadcaster init failed", zap.Error(err))
		}
		defer bc.Close()
		bc.Start(ctx)
	}

	// ---------------- Ingress ----------------

	gw := gateway.New(ring, pool, orderSeq)

	if cfg.Ingest.Kafka.Enabled {
		ingress := gateway.NewKafkaIngress(
			cfg.Ingest.Kafka.Brokers,
			cfg.Ingest.Kafka.Topic,
			cfg.Ingest.Kafka.GroupID,
			gw,
			logger,
		)
		defer ingress.Close()
		go func() {
			if err := ingress.Run(ctx); err != nil {
				logger.Error("kafka ingress exited", zap.Error(err))
				cancel()
			}
		}()
	}

	// ---------------- API ----------------

	srv := api.NewServer(gw, svc, cfg.Server.AllowedOrigins, logger)
	go func() {
		if err := srv.Start(cfg.Server.ListenAddr); err != nil {
			logger.Error("api server exited", zap.Error(err))
			cancel()
		}
	}()

	logger.Info("flashmatch engine running",
		zap.String("addr", cfg.Server.ListenAddr),
		zap.Int("ring_capacity", ring.Cap()))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info("shutting down")
	case <-ctx.Done():
	}
	cancel()
	<-svc.Done()
}
