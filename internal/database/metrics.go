package database

import (
	"database/sql"
	"time"

	"github.com/inkhub/content-go/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// MetricsCollector 数据库连接池指标收集器
type MetricsCollector struct {
	db              *sql.DB
	collectInterval time.Duration
	stop            chan struct{}

	dbConnectionsGauge *prometheus.GaugeVec
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector(db *sql.DB) *MetricsCollector {
	mc := &MetricsCollector{
		db:              db,
		collectInterval: 15 * time.Second,
		stop:            make(chan struct{}),
	}

	mc.dbConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "database_connections_total",
			Help: "Number of database connections in different states",
		},
		[]string{"state"}, // states: idle, in_use, open
	)

	return mc
}

// Start 开始收集指标
func (mc *MetricsCollector) Start() {
	logger.Info("Starting database metrics collection")

	go func() {
		ticker := time.NewTicker(mc.collectInterval)
		defer ticker.Stop()

		for {
			select {
			case <-mc.stop:
				return
			case <-ticker.C:
				mc.collect()
			}
		}
	}()
}

// Stop 停止收集
func (mc *MetricsCollector) Stop() {
	close(mc.stop)
}

func (mc *MetricsCollector) collect() {
	if mc.db == nil {
		return
	}

	stats := mc.db.Stats()
	mc.dbConnectionsGauge.WithLabelValues("open").Set(float64(stats.OpenConnections))
	mc.dbConnectionsGauge.WithLabelValues("in_use").Set(float64(stats.InUse))
	mc.dbConnectionsGauge.WithLabelValues("idle").Set(float64(stats.Idle))

	logger.Debug("collected database pool stats",
		zap.Int("open", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle))
}
