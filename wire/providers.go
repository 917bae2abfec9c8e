package wire

import (
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
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	notifierBufferSize = 256
	snapshotCacheTTL    = 2 * time.Second
)

// ProvideLogger provides a zerolog.Logger
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging)
}

// ProvideRedisClient provides a Redis client
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	return redis.New(cfg.Redis)
}

// ProvideSnapshotCache provides the optional Redis-backed read-through cache
// for GET /api/jackpots/{jackpotId}.
func ProvideSnapshotCache(client *redis.Client, logger zerolog.Logger) *jackpot.SnapshotCache {
	return jackpot.NewSnapshotCache(client, snapshotCacheTTL, logger)
}

// ProvideDB provides the Postgres-backed *gorm.DB used by the repositories.
func ProvideDB(cfg *config.Config) (*gorm.DB, error) {
	return postgres.New(cfg.Postgres)
}

// ProvideJackpotRepository provides the jackpot aggregate repository.
func ProvideJackpotRepository(db *gorm.DB) *repository.JackpotRepository {
	return repository.NewJackpotRepository(db)
}

// ProvideContributionRepository provides the contribution repository.
func ProvideContributionRepository(db *gorm.DB) *repository.ContributionRepository {
	return repository.NewContributionRepository(db)
}

// ProvideRewardRepository provides the reward repository.
func ProvideRewardRepository(db *gorm.DB) *repository.RewardRepository {
	return repository.NewRewardRepository(db)
}

// ProvideRandSource provides the cryptographically strong RNG shared by all
// reward formulas.
func ProvideRandSource() policy.RandSource {
	return policy.CryptoRandSource{}
}

// ProvidePolicyRegistry provides the formula registry wired with the
// fixed/variable contribution and reward strategies.
func ProvidePolicyRegistry(src policy.RandSource) (*policy.Registry, error) {
	return policy.DefaultRegistry(src)
}

// ProvideNotifier provides the buffered pool-update broadcaster.
func ProvideNotifier() *jackpot.Notifier {
	return jackpot.NewNotifier(notifierBufferSize)
}

// ProvideNilSnapshotCache satisfies ProvideServerOptions' Cache dependency
// for DefaultSet builds that don't pull in Redis: a nil *SnapshotCache
// disables the read-through cache and GetJackpot falls back to Postgres.
// FullSet pulls RedisSet instead, which supplies ProvideSnapshotCache for
// the same dependency — the two are mutually exclusive set members, never
// both included in one build.
func ProvideNilSnapshotCache() *jackpot.SnapshotCache {
	return nil
}

// ProvideBetsTopic resolves the Kafka topic POST /api/bets publishes to and
// the consumer reads from.
func ProvideBetsTopic(cfg *config.Config) string {
	topic := cfg.Kafka.Topics["bets"]
	if topic == "" {
		topic = "jackpot.bets"
	}
	return topic
}

// ProvideKafkaProducer provides the bet-ingestion producer. Returns nil when
// no brokers are configured, which disables POST /api/bets at the handler.
func ProvideKafkaProducer(cfg *config.Config, logger zerolog.Logger) (*kafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	return kafka.NewProducerWithConfig(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers, Logger: logger})
}

// ProvideContributionService provides the bet-ingestion service.
func ProvideContributionService(
	db *gorm.DB,
	jackpots *repository.JackpotRepository,
	contribs *repository.ContributionRepository,
	registry *policy.Registry,
	notifier *jackpot.Notifier,
	logger zerolog.Logger,
) *service.ContributionService {
	return service.NewContributionService(db, jackpots, contribs, registry, notifier, logger)
}

// ProvideEvaluationService provides the evaluation/reward service.
func ProvideEvaluationService(
	db *gorm.DB,
	jackpots *repository.JackpotRepository,
	contribs *repository.ContributionRepository,
	rewards *repository.RewardRepository,
	registry *policy.Registry,
	notifier *jackpot.Notifier,
	logger zerolog.Logger,
) *service.EvaluationService {
	return service.NewEvaluationService(db, jackpots, contribs, rewards, registry, notifier, logger)
}

// ProvideServerOptions provides server options
func ProvideServerOptions(
	cfg *config.Config,
	logger zerolog.Logger,
	db *gorm.DB,
	jackpots *repository.JackpotRepository,
	contributions *service.ContributionService,
	evaluations *service.EvaluationService,
	notifier *jackpot.Notifier,
	cache *jackpot.SnapshotCache,
	producer *kafka.Producer,
	betsTopic string,
) server.Options {
	return server.Options{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Jackpots:      jackpots,
		Contributions: contributions,
		Evaluations:   evaluations,
		Notifier:      notifier,
		Cache:         cache,
		Producer:      producer,
		BetsTopic:     betsTopic,
	}
}

// ProvideApp provides the main application
func ProvideApp(opts server.Options) *server.App {
	return server.New(opts)
}

// ConfigSet is the wire provider set for configuration
var ConfigSet = wire.NewSet(
	config.Load,
)

// LoggingSet is the wire provider set for logging
var LoggingSet = wire.NewSet(
	ProvideLogger,
)

// RedisSet is the wire provider set for Redis and the snapshot cache it
// backs. FullSet pulls this in instead of NoCacheSet to upgrade
// ProvideServerOptions' Cache dependency from nil to a real read-through
// cache; the two sets are never combined in one build.
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideSnapshotCache,
)

// NoCacheSet satisfies ProvideServerOptions' Cache dependency with nil when
// Redis is not wired in (DefaultSet).
var NoCacheSet = wire.NewSet(
	ProvideNilSnapshotCache,
)

// PersistenceSet is the wire provider set for the Postgres connection and
// jackpot repositories.
var PersistenceSet = wire.NewSet(
	ProvideDB,
	ProvideJackpotRepository,
	ProvideContributionRepository,
	ProvideRewardRepository,
)

// MessagingSet is the wire provider set for the bet-ingestion bus.
var MessagingSet = wire.NewSet(
	ProvideBetsTopic,
	ProvideKafkaProducer,
)

// DomainSet is the wire provider set for the jackpot domain services.
var DomainSet = wire.NewSet(
	ProvideRandSource,
	ProvidePolicyRegistry,
	ProvideNotifier,
	ProvideContributionService,
	ProvideEvaluationService,
)

// ServerSet is the wire provider set for server
var ServerSet = wire.NewSet(
	ProvideServerOptions,
	ProvideApp,
)

// DefaultSet is the default wire provider set: Postgres-only, no Redis cache.
var DefaultSet = wire.NewSet(
	LoggingSet,
	PersistenceSet,
	MessagingSet,
	DomainSet,
	NoCacheSet,
	ServerSet,
)

// FullSet swaps NoCacheSet for RedisSet, wiring the real read-through cache.
var FullSet = wire.NewSet(
	LoggingSet,
	PersistenceSet,
	MessagingSet,
	DomainSet,
	RedisSet,
	ServerSet,
)
