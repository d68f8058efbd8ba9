package di

import (
	"go.uber.org/zap"

	"docgraph/application/ports"
	"docgraph/application/services"
	"docgraph/infrastructure/config"
	"docgraph/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	BlobStore       ports.BlobStore
	Repository      ports.DocumentRepository
	DocumentService *services.DocumentService
	Ingestor        *services.Ingestor
	Metrics         *observability.Collector
}

// Shutdown flushes buffered state before exit
func (c *Container) Shutdown() {
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
