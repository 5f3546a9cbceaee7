package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scholarship-workers/internal/common/auth"
	"scholarship-workers/internal/common/camunda"
	"scholarship-workers/internal/common/config"
	"scholarship-workers/internal/common/database"
	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/common/metrics"
	"scholarship-workers/internal/common/observability"

	// matching domain
	arr "scholarship-workers/internal/workers/matching/apply-relevance-ranking"
	apt "scholarship-workers/internal/workers/matching/assign-priority-tier"
	csp "scholarship-workers/internal/workers/matching/calculate-success-probability"
	fe "scholarship-workers/internal/workers/matching/filter-eligibility"
	psf "scholarship-workers/internal/workers/matching/parse-search-filters"

	// application domain
	car "scholarship-workers/internal/workers/application/create-application-record"
	rr "scholarship-workers/internal/workers/application/request-recommendation"
	sn "scholarship-workers/internal/workers/application/send-notification"
	vad "scholarship-workers/internal/workers/application/validate-application-data"

	// essay domain
	gef "scholarship-workers/internal/workers/essay/generate-essay-feedback"
	seq "scholarship-workers/internal/workers/essay/score-essay-quality"

	// data access domain
	qe "scholarship-workers/internal/workers/data-access/query-elasticsearch"
	qp "scholarship-workers/internal/workers/data-access/query-postgresql"

	// infrastructure domain
	br "scholarship-workers/internal/workers/infrastructure/build-response"
	vsub "scholarship-workers/internal/workers/infrastructure/validate-subscription"

	// auth domain
	vsess "scholarship-workers/internal/workers/auth/verify-session"
)

// retryWithBackoff attempts an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	tracing, err := observability.NewTracing("worker-manager", cfg.Observability.JaegerEndpoint)
	if err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
	} else {
		defer tracing.Shutdown()
	}

	ctx := context.Background()

	// --- Camunda/Zeebe client with connect retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var cerr error
		camundaClient, cerr = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return cerr
	}, 10, 2*time.Second, zapLog, "Camunda client initialization")
	if err != nil {
		zapLog.Fatal("camunda client failed after retries", zap.Error(err))
	}
	defer camundaClient.Close()
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Camunda client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var perr error
		pg, perr = database.NewPostgres(cfg.Database.Postgres)
		if perr != nil {
			return perr
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var eserr error
		esClient, eserr = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if eserr != nil {
			return eserr
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Redis ---
	var rds *database.RedisClient
	err = retryWithBackoff(func() error {
		var rerr error
		rds, rerr = database.NewRedis(cfg.Database.Redis)
		if rerr != nil {
			return rerr
		}
		return rds.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rds.Close()
	zapLog.Info("Redis connected successfully")

	// --- OIDC auth provider ---
	providerClient := auth.NewProviderClient(
		cfg.Auth.Provider.URL,
		cfg.Auth.Provider.Realm,
		cfg.Auth.Provider.ClientID,
		cfg.Auth.Provider.ClientSecret,
	)

	reg := newWorkerRegistry(zeebeClient, cfg, zapLog)

	// --- matching domain (5) ---
	{
		c := fe.LoadConfig()
		c.Timeout = workerTimeout(cfg, fe.TaskType)
		reg.start(fe.TaskType, fe.NewHandler(c, pg.DB, rds.Client, log).Handle)
	}
	{
		c := csp.LoadConfig()
		c.Timeout = workerTimeout(cfg, csp.TaskType)
		reg.start(csp.TaskType, csp.NewHandler(c, pg.DB, rds.Client, log).Handle)
	}
	{
		c := apt.LoadConfig()
		c.Timeout = workerTimeout(cfg, apt.TaskType)
		reg.start(apt.TaskType, apt.NewHandler(c, pg.DB, rds.Client, log).Handle)
	}
	{
		c := arr.LoadConfig()
		c.Timeout = workerTimeout(cfg, arr.TaskType)
		reg.start(arr.TaskType, arr.NewHandler(c, log).Handle)
	}
	{
		c := psf.LoadConfig()
		c.Timeout = workerTimeout(cfg, psf.TaskType)
		reg.start(psf.TaskType, psf.NewHandler(c, log).Handle)
	}

	// --- application domain (4) ---
	{
		c := vad.LoadConfig()
		c.Timeout = workerTimeout(cfg, vad.TaskType)
		reg.start(vad.TaskType, vad.NewHandler(c, log).Handle)
	}
	{
		c := car.LoadConfig()
		c.Timeout = workerTimeout(cfg, car.TaskType)
		reg.start(car.TaskType, car.NewHandler(c, pg.DB, log).Handle)
	}
	{
		c := rr.LoadConfig()
		c.Timeout = workerTimeout(cfg, rr.TaskType)
		c.FromEmail = cfg.Integrations.AWS.SES.FromEmail
		c.AWSRegion = cfg.Integrations.AWS.Region
		c.UploadBaseURL = cfg.Integrations.RecommenderPortal.BaseURL
		handler, err := rr.NewHandler(c, pg.DB, log)
		if err != nil {
			zapLog.Fatal("failed to create request-recommendation handler", zap.Error(err))
		}
		reg.start(rr.TaskType, handler.Handle)
	}
	{
		c := sn.LoadConfig()
		c.Timeout = workerTimeout(cfg, sn.TaskType)
		c.EmailEnabled = cfg.Notifications.Email.Enabled
		c.SMSEnabled = cfg.Notifications.SMS.Enabled
		c.FromEmail = cfg.Notifications.Email.FromEmail
		c.AWSRegion = cfg.Notifications.AWS.Region
		c.TemplateRegistry = cfg.Notifications.TemplateRegistry
		handler, err := sn.NewHandler(c, pg.DB, log)
		if err != nil {
			zapLog.Fatal("failed to create send-notification handler", zap.Error(err))
		}
		reg.start(sn.TaskType, handler.Handle)
	}

	// --- essay domain (2) ---
	{
		c := seq.LoadConfig()
		c.Timeout = workerTimeout(cfg, seq.TaskType)
		reg.start(seq.TaskType, seq.NewHandler(c, log).Handle)
	}
	{
		c := gef.LoadConfig()
		c.GenAIBaseURL = cfg.APIs.GenAI.BaseURL
		c.APIKey = cfg.APIs.GenAI.APIKey
		c.Timeout = config.GetDuration(cfg.APIs.GenAI.Timeout)
		reg.start(gef.TaskType, gef.NewHandler(c, log).Handle)
	}

	// --- data access domain (2) ---
	{
		c := qp.LoadConfig()
		c.Timeout = workerTimeout(cfg, qp.TaskType)
		reg.start(qp.TaskType, qp.NewHandler(c, pg.DB, log).Handle)
	}
	{
		c := qe.LoadConfig()
		c.Timeout = workerTimeout(cfg, qe.TaskType)
		reg.start(qe.TaskType, qe.NewHandler(c, esClient.Client, log).Handle)
	}

	// --- infrastructure domain (2) ---
	{
		c := vsub.LoadConfig()
		c.Timeout = workerTimeout(cfg, vsub.TaskType)
		reg.start(vsub.TaskType, vsub.NewHandler(c, pg.DB, rds.Client, log).Handle)
	}
	{
		c := br.LoadConfig()
		c.Timeout = workerTimeout(cfg, br.TaskType)
		c.TemplateRegistry = cfg.Template.RegistryPath
		c.AppVersion = cfg.App.Version
		reg.start(br.TaskType, br.NewHandler(c, log).Handle)
	}

	// --- auth domain (1) ---
	{
		c := vsess.LoadConfig()
		c.Timeout = workerTimeout(cfg, vsess.TaskType)
		c.SessionCacheTTL = time.Duration(cfg.Auth.SessionCacheTTL) * time.Second
		reg.start(vsess.TaskType, vsess.NewHandler(c, providerClient, rds.Client, log).Handle)
	}

	zapLog.Info("All workers registered", zap.Int("count", len(reg.workers)))

	// --- Health & metrics server on :8080 ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "ready"
		code := http.StatusOK
		if err := pg.Ping(r.Context()); err != nil {
			status, code = "postgres unavailable", http.StatusServiceUnavailable
		} else if err := rds.Ping(r.Context()); err != nil {
			status, code = "redis unavailable", http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{Addr: ":8080", Handler: mux}
	go func() {
		zapLog.Info("Health/metrics server listening on :8080")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg.stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error shutting down health/metrics server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// workerRegistry tracks opened job workers so shutdown can drain them.
type workerRegistry struct {
	client  zbc.Client
	cfg     *config.Config
	log     *zap.Logger
	workers []worker.JobWorker
}

func newWorkerRegistry(client zbc.Client, cfg *config.Config, log *zap.Logger) *workerRegistry {
	return &workerRegistry{client: client, cfg: cfg, log: log}
}

func (r *workerRegistry) start(taskType string, handlerFunc func(worker.JobClient, entities.Job)) {
	wcfg := config.GetWorkerConfig(r.cfg, taskType)
	if !wcfg.Enabled {
		r.log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	w := r.client.NewJobWorker().
		JobType(taskType).
		Handler(instrument(taskType, handlerFunc)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()
	r.workers = append(r.workers, w)

	r.log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}

func (r *workerRegistry) stop() {
	for _, w := range r.workers {
		w.Close()
		w.AwaitClose()
	}
}

// instrument wraps a job handler with per-task Prometheus metrics.
func instrument(taskType string, handlerFunc func(worker.JobClient, entities.Job)) func(worker.JobClient, entities.Job) {
	return func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		start := time.Now()
		defer func() {
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobsProcessed.WithLabelValues(taskType).Inc()
		}()
		handlerFunc(client, job)
	}
}

func workerTimeout(cfg *config.Config, taskType string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
}
