// Command jackpotd runs the jackpot engine HTTP server, consuming bet
// events from Kafka and exposing the contribution/evaluation/read API.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/Asvarisch/Jackpot/config"
	"github.com/Asvarisch/Jackpot/db/postgres"
	"github.com/Asvarisch/Jackpot/db/redis"
	"github.com/Asvarisch/Jackpot/events/kafka"
	"github.com/Asvarisch/Jackpot/logging"
	"github.com/Asvarisch/Jackpot/pkg/jackpot"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/policy"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/repository"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/service"
	"github.com/Asvarisch/Jackpot/server"
)

// snapshotCacheTTL bounds how stale a cached jackpot read can be.
const snapshotCacheTTL = 2 * time.Second

func main() {
	configFile := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.Logging)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	jackpots := repository.NewJackpotRepository(db)
	contribs := repository.NewContributionRepository(db)
	rewards := repository.NewRewardRepository(db)

	registry, err := policy.DefaultRegistry(policy.CryptoRandSource{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build policy registry")
	}

	notifier := jackpot.NewNotifier(256)

	var snapshotCache *jackpot.SnapshotCache
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, jackpot reads will bypass the cache")
		} else {
			snapshotCache = jackpot.NewSnapshotCache(redisClient, snapshotCacheTTL, logger)
		}
	}

	betsTopic := cfg.Kafka.Topics["bets"]
	if betsTopic == "" {
		betsTopic = "jackpot.bets"
	}

	contributionService := service.NewContributionService(db, jackpots, contribs, registry, notifier, logger)
	evaluationService := service.NewEvaluationService(db, jackpots, contribs, rewards, registry, notifier, logger)

	var producer *kafka.Producer
	var consumer *kafka.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducerWithConfig(kafka.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Logger:  logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to start kafka producer")
		}

		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         betsTopic,
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
			Logger:        logger,
		}, func(ctx context.Context, event kafka.BetEvent) error {
			_, err := contributionService.Contribute(ctx, service.BetEvent{
				BetID:     event.BetID,
				UserID:    event.UserID,
				JackpotID: event.JackpotID,
				BetAmount: event.BetAmount,
			})
			return err
		})
	} else {
		logger.Warn().Msg("no kafka brokers configured, POST /api/bets will return 503")
	}

	app := server.New(server.Options{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Jackpots:      jackpots,
		Contributions: contributionService,
		Evaluations:   evaluationService,
		Notifier:      notifier,
		Cache:         snapshotCache,
		Producer:      producer,
		BetsTopic:     betsTopic,
	})

	app.UseCommonMiddlewares()
	app.RegisterHealthCheck()
	app.RegisterJackpotRoutes()

	if consumer != nil {
		if err := consumer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start kafka consumer")
		}
		app.OnShutdown(func() {
			if err := consumer.Stop(); err != nil {
				logger.Error().Err(err).Msg("error stopping kafka consumer")
			}
		})
	}
	if producer != nil {
		app.OnShutdown(func() {
			if err := producer.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing kafka producer")
			}
		})
	}

	if err := app.Run(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}
