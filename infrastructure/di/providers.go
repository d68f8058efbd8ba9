package di

import (
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"docgraph/application/ports"
	"docgraph/application/services"
	"docgraph/domain/graph"
	"docgraph/infrastructure/blob"
	"docgraph/infrastructure/config"
	"docgraph/infrastructure/persistence/blobjson"
	"docgraph/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideBlobStore selects the backing object store. A configured storage
// endpoint selects Supabase wrapped in retries and a circuit breaker; an
// empty one selects the in-memory store, which keeps local development
// free of credentials.
func ProvideBlobStore(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) ports.BlobStore {
	var store ports.BlobStore
	if cfg.StorageURL == "" {
		logger.Warn("no STORAGE_URL configured, using in-memory blob store")
		store = blob.NewMemoryStore(cfg.PublicBaseURL)
	} else {
		client := storage_go.NewClient(cfg.StorageURL, cfg.StorageKey, nil)
		supabase := blob.NewSupabaseStore(client, cfg.StorageBucket, cfg.PublicBaseURL, logger)
		retrying := blob.NewRetryingStore(supabase, blob.DefaultRetryConfig(), logger)
		store = blob.NewBreakerStore(retrying, logger)
	}

	if metrics != nil {
		store = blob.NewMeteredStore(store, metrics)
	}
	return store
}

// ProvideRepository creates the document repository over the collection blob
func ProvideRepository(store ports.BlobStore, cfg *config.Config, logger *zap.Logger) ports.DocumentRepository {
	return blobjson.NewRepository(store, cfg.CollectionName, logger)
}

// ProvideMetrics creates the metrics collector. Disabled metrics yield a
// nil collector, which the service layer treats as a no-op.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("docgraph")
}

// ProvideLayoutController creates the layout controller from configuration
func ProvideLayoutController(cfg *config.Config) graph.Controller {
	return graph.NewController(cfg.ZoomThreshold, cfg.ClusterRadius, cfg.MaxTagButtons)
}

// ProvideDocumentService creates the document service
func ProvideDocumentService(
	repo ports.DocumentRepository,
	store ports.BlobStore,
	layout graph.Controller,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.DocumentService {
	return services.NewDocumentService(repo, store, layout, metrics, logger)
}

// ProvideIngestor creates the batch ingestor
func ProvideIngestor(svc *services.DocumentService, cfg *config.Config, logger *zap.Logger) *services.Ingestor {
	return services.NewIngestor(svc, cfg.IngestWorkers, logger)
}
