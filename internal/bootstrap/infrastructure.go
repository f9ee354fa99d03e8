// Package bootstrap opens the backing services a configuration asks for and
// assembles them into pipeline sources, sinks and resolvers.
package bootstrap

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/pubconcept/internal/application/allowset"
	"github.com/turtacn/pubconcept/internal/application/replacement"
	"github.com/turtacn/pubconcept/internal/config"
	"github.com/turtacn/pubconcept/internal/domain/concept"
	neo4jdriver "github.com/turtacn/pubconcept/internal/infrastructure/database/neo4j"
	neo4jrepo "github.com/turtacn/pubconcept/internal/infrastructure/database/neo4j/repositories"
	pgconn "github.com/turtacn/pubconcept/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/pubconcept/internal/infrastructure/database/postgres/repositories"
	redisclient "github.com/turtacn/pubconcept/internal/infrastructure/database/redis"
	kafkaproducer "github.com/turtacn/pubconcept/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pubconcept/internal/infrastructure/storage/file"
	minioclient "github.com/turtacn/pubconcept/internal/infrastructure/storage/minio"
	"github.com/turtacn/pubconcept/internal/interfaces/http/handlers"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// Constructors are variables so tests can substitute fakes.
var (
	openPostgres = func(cfg config.DatabaseConfig, log logging.Logger) (*pgxpool.Pool, error) {
		db, err := pgconn.OpenMigrationDB(cfg, log)
		if err != nil {
			return nil, err
		}
		err = pgconn.RunMigrations(db, cfg.MigrationPath, log)
		_ = db.Close()
		if err != nil {
			return nil, err
		}
		return pgconn.NewConnectionPool(cfg, log)
	}
	openNeo4j = func(cfg config.Neo4jConfig, log logging.Logger) (neo4jdriver.DriverInterface, error) {
		return neo4jdriver.NewDriver(cfg, log)
	}
	openRedis    = redisclient.NewClient
	openMinIO    = minioclient.NewClient
	openProducer = kafkaproducer.NewProducer
)

// Infrastructure holds the clients a process opened. Each is nil unless the
// configuration needs it.
type Infrastructure struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *prometheus.PipelineMetrics

	pg       *pgxpool.Pool
	neo4j    neo4jdriver.DriverInterface
	redis    *redisclient.Client
	minio    *minioclient.Client
	producer *kafkaproducer.Producer
}

// New opens what cfg asks for:
//
//	postgres  when pipeline.sinks lists it (migrations are applied first)
//	kafka     when pipeline.sinks lists it
//	minio     when pipeline.sinks lists it or minio.endpoint is set
//	neo4j     when neo4j.uri is set
//	redis     when redis.addr is set and neo4j is open
//
// On failure everything already opened is closed.
func New(cfg *config.Config, logger logging.Logger, metrics *prometheus.PipelineMetrics) (*Infrastructure, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopPipelineMetrics()
	}
	infra := &Infrastructure{cfg: cfg, logger: logger, metrics: metrics}

	if cfg.SinkEnabled("postgres") {
		pool, err := openPostgres(cfg.Database, logger.Named("postgres"))
		if err != nil {
			infra.Close()
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres")
		}
		infra.pg = pool
	}

	if cfg.SinkEnabled("kafka") {
		p, err := openProducer(cfg.Kafka, logger.Named("kafka"))
		if err != nil {
			infra.Close()
			return nil, errors.Wrap(err, errors.ErrCodeExternalService, "kafka")
		}
		infra.producer = p
	}

	if cfg.SinkEnabled("minio") || cfg.MinIO.Endpoint != "" {
		c, err := openMinIO(cfg.MinIO, logger.Named("minio"))
		if err != nil {
			infra.Close()
			return nil, errors.Wrap(err, errors.ErrCodeExternalService, "minio")
		}
		infra.minio = c
	}

	if cfg.Neo4j.URI != "" {
		d, err := openNeo4j(cfg.Neo4j, logger.Named("neo4j"))
		if err != nil {
			infra.Close()
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j")
		}
		infra.neo4j = d

		if cfg.Redis.Addr != "" {
			r, err := openRedis(cfg.Redis, logger.Named("redis"))
			if err != nil {
				infra.Close()
				return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis")
			}
			infra.redis = r
		}
	}

	logger.Info("infrastructure initialized",
		logging.Bool("postgres", infra.pg != nil),
		logging.Bool("kafka", infra.producer != nil),
		logging.Bool("minio", infra.minio != nil),
		logging.Bool("neo4j", infra.neo4j != nil),
		logging.Bool("redis", infra.redis != nil),
	)
	return infra, nil
}

// Source routes local paths, stdin and s3:// URIs. Object URIs fail with
// SourceUnavailable when MinIO is not open.
func (i *Infrastructure) Source() replacement.Source {
	var objects file.ObjectOpener
	if i.minio != nil {
		objects = i.minio
	}
	return file.NewRouter(
		file.WithLogger(i.logger.Named("source")),
		file.WithObjectStore(minioclient.URIScheme, objects),
	)
}

// Sinks returns one sink per entry of pipeline.sinks, in configured order.
// input is recorded against the run in postgres.
func (i *Infrastructure) Sinks(input string) []replacement.Sink {
	var sinks []replacement.Sink
	for _, name := range i.cfg.Pipeline.Sinks {
		switch name {
		case "postgres":
			if i.pg != nil {
				repo := pgrepo.NewArticleRepository(i.pg, i.logger.Named("postgres"))
				sinks = append(sinks, pgrepo.NewArticleSink(repo, input))
			}
		case "kafka":
			if i.producer != nil {
				sinks = append(sinks, kafkaproducer.NewArticleSink(i.producer))
			}
		case "minio":
			if i.minio != nil {
				sinks = append(sinks, minioclient.NewArticleSink(i.minio))
			}
		}
	}
	return sinks
}

// Resolver returns the MeSH descendant resolver, cached in Redis when Redis
// is open.
func (i *Infrastructure) Resolver() (concept.DescendantResolver, error) {
	if i.neo4j == nil {
		return nil, errors.New(errors.ErrCodeSourceUnavailable, "mesh graph is not configured").
			WithDetail("set neo4j.uri")
	}
	var resolver concept.DescendantResolver = neo4jrepo.NewMeshRepository(i.neo4j, i.logger.Named("mesh"), neo4jrepo.WithMetrics(i.metrics))
	if i.redis == nil {
		return resolver, nil
	}
	cache := redisclient.NewRedisCache(i.redis, i.logger.Named("cache"),
		redisclient.WithPrefix(i.cfg.Redis.KeyPrefix),
		redisclient.WithDefaultTTL(i.cfg.Redis.DefaultTTL),
	)
	return redisclient.NewCachingResolver(resolver, cache, i.cfg.Redis.DefaultTTL, i.metrics, i.logger.Named("cache")), nil
}

// DescriptorStore returns the MeSH graph for writing descriptors.
func (i *Infrastructure) DescriptorStore() (allowset.DescriptorStore, error) {
	if i.neo4j == nil {
		return nil, errors.New(errors.ErrCodeSourceUnavailable, "mesh graph is not configured").
			WithDetail("set neo4j.uri")
	}
	return neo4jrepo.NewMeshRepository(i.neo4j, i.logger.Named("mesh"), neo4jrepo.WithMetrics(i.metrics)), nil
}

// HealthCheckers reports one checker per open service.
func (i *Infrastructure) HealthCheckers() []handlers.HealthChecker {
	var checks []handlers.HealthChecker
	if i.pg != nil {
		checks = append(checks, handlers.CheckFunc{Component: "postgres", Fn: i.pg.Ping})
	}
	if i.neo4j != nil {
		checks = append(checks, handlers.CheckFunc{Component: "neo4j", Fn: i.neo4j.HealthCheck})
	}
	if i.redis != nil {
		checks = append(checks, handlers.CheckFunc{Component: "redis", Fn: i.redis.Ping})
	}
	if i.minio != nil {
		checks = append(checks, handlers.CheckFunc{Component: "minio", Fn: func(ctx context.Context) error {
			_, err := i.minio.HealthCheck(ctx)
			return err
		}})
	}
	return checks
}

// Close releases every open client. It is safe to call more than once.
func (i *Infrastructure) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if i.producer != nil {
		if err := i.producer.Close(); err != nil {
			i.logger.Warn("kafka producer close failed", logging.Err(err))
		}
		i.producer = nil
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			i.logger.Warn("redis close failed", logging.Err(err))
		}
		i.redis = nil
	}
	if i.neo4j != nil {
		if err := i.neo4j.Close(ctx); err != nil {
			i.logger.Warn("neo4j close failed", logging.Err(err))
		}
		i.neo4j = nil
	}
	if i.pg != nil {
		i.pg.Close()
		i.pg = nil
	}
	if i.minio != nil {
		if err := i.minio.Close(); err != nil {
			i.logger.Warn("minio close failed", logging.Err(err))
		}
		i.minio = nil
	}
}

//Personal.AI order the ending
