package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/congo-pay/wallet_ledger/internal/audit"
	"github.com/congo-pay/wallet_ledger/internal/config"
	"github.com/congo-pay/wallet_ledger/internal/infra"
	"github.com/congo-pay/wallet_ledger/internal/logging"
	"github.com/congo-pay/wallet_ledger/internal/notification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, slog.String("service", cfg.AppName), slog.String("binary", "worker"), slog.String("env", cfg.Env))
	if err := run(cfg, logger); err != nil {
		logger.Error("worker exited with an error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker exited cleanly")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := infra.NewMongoClient(ctx, cfg.MongoURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Warn("disconnect mongo", "error", err)
		}
	}()

	conn, err := infra.NewAMQPConnection(cfg.AMQPURL, cfg.AppName+"_audit_worker")
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	deliveries, err := audit.Subscribe(ch, notification.Exchange)
	if err != nil {
		return err
	}

	consumer := audit.NewConsumer(audit.NewMongoRepository(mongoClient, cfg.MongoDatabase), logger)

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(ctx, deliveries)
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			if amqpErr != nil {
				return fmt.Errorf("rabbitmq channel closed: %w", amqpErr)
			}
			return nil
		}
	})

	return g.Wait()
}
