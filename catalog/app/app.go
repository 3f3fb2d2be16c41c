package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookhive/catalog-service/catalog/config"
	"github.com/bookhive/catalog-service/catalog/internal/handler"
	"github.com/bookhive/catalog-service/catalog/internal/repository"
	"github.com/bookhive/catalog-service/catalog/internal/server"
	"github.com/bookhive/catalog-service/catalog/internal/service"
	"github.com/bookhive/catalog-service/catalog/migrations"
	"github.com/bookhive/catalog-service/pkg/cache"
	"github.com/bookhive/catalog-service/pkg/kafka"
	"github.com/bookhive/catalog-service/pkg/logger"
	"github.com/bookhive/catalog-service/pkg/postgres"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "catalog")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	bookCache := cache.NewCache(cfg.Cache)

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Fatal("kafka.NewProducer", zap.Error(err))
	}

	svc := service.NewService(repo, bookCache, kafka.NewPublisher(producer), log,
		service.WithTTL(cfg.Cache.TTL))

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case termSig := <-sig:
			log.Debug("Graceful shutdown", zap.Any("signal", termSig))
		case <-ctx.Done():
		}

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server run", zap.Error(err))
	}

	if err := producer.Close(); err != nil {
		log.Error("producer.Close", zap.Error(err))
	}
	if err := bookCache.Close(); err != nil {
		log.Error("cache.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
