//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/warehouse-erp/kafka"
	"github.com/tair/warehouse-erp/pkg/config"
)

// InitializeHandlers initializes every module handler with all dependencies.
// rdb may be nil when Redis is not configured.
func InitializeHandlers(
	cfg config.Config,
	db *gorm.DB,
	rdb redis.UniversalClient,
	publisher kafka.EventPublisher,
	reg prometheus.Registerer,
) (*Handlers, error) {
	wire.Build(AllHandlersSet)
	return nil, nil
}
