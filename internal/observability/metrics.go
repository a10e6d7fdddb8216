// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfswap_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shelfswap_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// TradesProposed counts trades created.
	TradesProposed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelfswap_trades_proposed_total",
		Help: "Total number of trades proposed",
	})

	// TradeTransitions counts applied trade status transitions by target status.
	TradeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfswap_trade_transitions_total",
		Help: "Total number of trade status transitions by target status",
	}, []string{"status"})

	// NotificationsCreated counts durable notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfswap_notifications_created_total",
		Help: "Total number of notifications created by type",
	}, []string{"type"})

	// SideEffectFailures counts best-effort side effects that failed and were swallowed.
	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfswap_side_effect_failures_total",
		Help: "Total number of swallowed side-effect failures by kind",
	}, []string{"kind"})
)

// Side-effect kinds.
const (
	SideEffectNotification = "notification"
	SideEffectPinnedChat   = "pinned_chat"
	SideEffectPublish      = "publish"
	SideEffectCache        = "cache"
)

// RecordSideEffectFailure increments the swallowed-failure counter for kind.
func RecordSideEffectFailure(kind string) {
	SideEffectFailures.WithLabelValues(kind).Inc()
}

// DatabaseMetrics records query latency for a GORM connection.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}

const startedAtKey = "observability:started_at"

// Register hooks latency observation into every GORM create/query/update/delete.
func (m *DatabaseMetrics) Register() error {
	cb := m.db.Callback()
	for _, h := range []struct {
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
	} {
		operation := h.operation
		if err := h.before("observability:before_"+operation, func(db *gorm.DB) {
			db.InstanceSet(startedAtKey, time.Now())
		}); err != nil {
			return err
		}
		if err := h.after("observability:after_"+operation, func(db *gorm.DB) {
			v, ok := db.InstanceGet(startedAtKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := "unknown"
			if db.Statement != nil && db.Statement.Table != "" {
				table = db.Statement.Table
			}
			m.ObserveQuery(operation, table, start)
		}); err != nil {
			return err
		}
	}
	return nil
}
