package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RegimeShift/internal/domain/models"
	"RegimeShift/internal/domain/repository"
	domsvc "RegimeShift/internal/domain/service"
	"RegimeShift/internal/handler/api"
	"RegimeShift/internal/handler/ws"
	internalrepo "RegimeShift/internal/repository"
	"RegimeShift/internal/scheduler"
	"RegimeShift/internal/service/ratelimit"
	"RegimeShift/internal/services/changepoint"
	"RegimeShift/internal/services/inference"
	"RegimeShift/internal/services/series"
	"RegimeShift/internal/usecase"
	"RegimeShift/pkg/cache"
	pkgch "RegimeShift/pkg/clickhouse"
	"RegimeShift/pkg/config"
	xhttp "RegimeShift/pkg/http"
	pkgkafka "RegimeShift/pkg/kafka"
	applogger "RegimeShift/pkg/logger"
	"RegimeShift/pkg/metrics"
	"RegimeShift/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

var (
	recorderOnce sync.Once
	recorder     *metrics.Recorder
)

// ProvideMetrics returns the process-wide Prometheus recorder. The default
// registry rejects a second registration of the same collectors.
func ProvideMetrics() repository.Metrics {
	recorderOnce.Do(func() { recorder = metrics.New() })
	return recorder
}

// ProvideEngine selects the inference engine and wraps it with metrics.
func ProvideEngine(cfg *config.Config, m repository.Metrics, l *applogger.Logger) domsvc.InferenceEngine {
	var engine domsvc.InferenceEngine
	switch cfg.Analysis.Engine {
	case "remote":
		engine = inference.NewRemote(cfg.Remote.URL, cfg.Remote.Timeout, cfg.Remote.MaxRetries+1)
	default:
		engine = inference.NewGibbs(
			inference.WithMaxRHat(cfg.Analysis.MaxRHat),
			inference.WithGibbsLogger(l),
		)
	}
	return inference.NewInstrumented(engine, m, l)
}

// ProvideAnalysisConfig maps the YAML sections onto the service configuration.
func ProvideAnalysisConfig(cfg *config.Config) usecase.AnalysisConfig {
	return usecase.AnalysisConfig{
		PricesPath: cfg.Data.PricesPath,
		EventsPath: cfg.Data.EventsPath,
		WindowDays: cfg.Analysis.WindowDays,
		Sampler: models.SamplerConfig{
			Draws:  cfg.Sampler.Draws,
			Tune:   cfg.Sampler.Tune,
			Chains: cfg.Sampler.Chains,
			Seed:   cfg.Sampler.Seed,
		},
		Priors: models.Priors{
			MuSigma:    cfg.Model.MuSigma,
			SigmaScale: cfg.Model.SigmaScale,
		},
		RunTimeout: cfg.Analysis.RunTimeout,
	}
}

// ProvideCache returns the memory cache, or a memory cache layered over Redis
// when cache.redis.enabled is set.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		c := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
		return c, func() { _ = c.Close() }, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	c := cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize))
	l.Info("estimate cache backed by redis", applogger.String("addr", cfg.Cache.Redis.Addr))
	return c, func() {
		if err := c.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}, nil
}

// ProvideEstimateCache stores point estimates for cache.ttl.
func ProvideEstimateCache(c cache.Service, cfg *config.Config) repository.EstimateCache {
	return internalrepo.NewEstimateCache(c, cfg.Cache.TTL)
}

// ProvideRunStore opens the run history backend selected by history.backend.
func ProvideRunStore(cfg *config.Config, l *applogger.Logger) (repository.RunStore, func(), error) {
	var store repository.RunStore
	switch cfg.History.Backend {
	case "sqlite":
		s, err := internalrepo.NewSQLiteRunStore(cfg.History.SQLitePath, cfg.History.Table)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "clickhouse":
		ch, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(4, 2),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		s := internalrepo.NewCHRunStore(ch, ch.Table(cfg.History.Table))
		s.SetLogger(l)
		store = s
	default:
		store = internalrepo.NoopRunStore{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("run store init: %w", err)
	}
	l.Info("run history ready", applogger.String("backend", cfg.History.Backend))
	return store, func() {
		if err := store.Close(); err != nil {
			l.Warn("run store close error", applogger.Error(err))
		}
	}, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
// With logging.collector enabled the producer also ships aggregated error logs.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Logging.Collector.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.Interval,
			CountThreshold: cfg.Logging.Collector.Threshold,
			Topic:          cfg.Logging.Collector.Topic,
			Publisher:      producer,
			Service:        "regimeshift",
		})
	}

	return producer, func() {
		l.RemoveCollector()
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvideRunPublisher announces finished runs on kafka.runs_topic.
func ProvideRunPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RunPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaRunPublisher(producer, cfg.Kafka.RunsTopic)
}

// ProvideAnalysisService assembles the pipeline and attaches its optional collaborators.
func ProvideAnalysisService(
	acfg usecase.AnalysisConfig,
	engine domsvc.InferenceEngine,
	m repository.Metrics,
	estimates repository.EstimateCache,
	store repository.RunStore,
	pub repository.RunPublisher,
	l *applogger.Logger,
) *usecase.AnalysisService {
	pipe := series.NewPipeline()
	pipe.SetLogger(l)
	svc := usecase.NewAnalysisService(acfg, pipe, changepoint.NewBuilder(acfg.Priors), engine)
	svc.SetLogger(l)
	svc.SetMetrics(m)
	svc.SetCache(estimates)
	svc.SetRunStore(store)
	if pub != nil {
		svc.SetPublisher(pub)
	}
	return svc
}

// ProvideKafkaConsumer creates the rerun command consumer, or nil unless both
// kafka.enabled and kafka.consumer.enabled are set.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.LoggingHook(l)))
	return consumer, nil
}

// ProvideRerunHandler handles commands from kafka.rerun_topic.
func ProvideRerunHandler(cfg *config.Config, svc *usecase.AnalysisService, m repository.Metrics, l *applogger.Logger) *usecase.KafkaRerunHandler {
	return usecase.NewKafkaRerunHandler(cfg.Kafka.RerunTopic, svc, m, l)
}

// ProvideScheduler returns the cron rerun scheduler, or nil when disabled.
func ProvideScheduler(cfg *config.Config, svc *usecase.AnalysisService, l *applogger.Logger) *scheduler.Scheduler {
	if !cfg.Scheduler.Enabled {
		return nil
	}
	return scheduler.New(svc, cfg.Scheduler.Spec, cfg.Analysis.RunTimeout, l)
}

// ProvideHub creates the status hub and subscribes it to published snapshots.
func ProvideHub(svc *usecase.AnalysisService, l *applogger.Logger) *ws.Hub {
	hub := ws.NewHub(l, svc, 30*time.Second)
	svc.Subscribe(hub.Publish)
	return hub
}

// ProvideAnalysisHandler creates the REST handler.
func ProvideAnalysisHandler(cfg *config.Config, svc *usecase.AnalysisService, l *applogger.Logger) *api.AnalysisEchoHandler {
	return api.NewAnalysisEchoHandler(l, svc, ratelimit.New(), api.RerunLimit{
		Capacity:  float64(cfg.RateLimit.RerunCapacity),
		RefillSec: cfg.RateLimit.RerunRefill,
	})
}

// ProvideHTTPServer registers the REST and websocket routes on one echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.AnalysisEchoHandler, hub *ws.Hub, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS.AllowOrigins, cfg.Server.CORS.MaxAge),
		xhttp.WithMetrics(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.AnalysisService,
	httpServer *xhttp.Server,
	hub *ws.Hub,
	consumer *pkgkafka.Consumer,
	rerun *usecase.KafkaRerunHandler,
	sched *scheduler.Scheduler,
) *server.App {
	return server.New(cfg, l, svc, httpServer, hub, consumer, rerun, sched)
}
