package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is the slice of pgxpool statistics exported as metrics.
type PoolStats struct {
	Acquired          int32
	Idle              int32
	Total             int32
	Max               int32
	AcquireCount      int64
	EmptyAcquireCount int64
	AcquireSeconds    float64
}

// StatsFunc returns a snapshot of pool statistics.
type StatsFunc func() PoolStats

// PgxPoolStats reads statistics from a pgxpool.
func PgxPoolStats(pool *pgxpool.Pool) StatsFunc {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			Acquired:          s.AcquiredConns(),
			Idle:              s.IdleConns(),
			Total:             s.TotalConns(),
			Max:               s.MaxConns(),
			AcquireCount:      s.AcquireCount(),
			EmptyAcquireCount: s.EmptyAcquireCount(),
			AcquireSeconds:    s.AcquireDuration().Seconds(),
		}
	}
}

type poolMetric struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(PoolStats) float64
}

// PoolStatsCollector exports connection pool statistics per service.
type PoolStatsCollector struct {
	stats   StatsFunc
	service string
	metrics []poolMetric
}

// NewPoolStatsCollector builds a collector over stats.
func NewPoolStatsCollector(stats StatsFunc, service string) *PoolStatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, []string{"service"}, nil)
	}
	return &PoolStatsCollector{
		stats:   stats,
		service: service,
		metrics: []poolMetric{
			{desc("db_pool_acquired_connections", "Connections currently checked out"), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.Acquired) }},
			{desc("db_pool_idle_connections", "Idle connections in the pool"), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.Idle) }},
			{desc("db_pool_total_connections", "Open connections in the pool"), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.Total) }},
			{desc("db_pool_max_connections", "Configured pool size"), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.Max) }},
			{desc("db_pool_acquire_count_total", "Connection acquisitions"), prometheus.CounterValue,
				func(s PoolStats) float64 { return float64(s.AcquireCount) }},
			{desc("db_pool_empty_acquire_count_total", "Acquisitions that waited for a free connection"), prometheus.CounterValue,
				func(s PoolStats) float64 { return float64(s.EmptyAcquireCount) }},
			{desc("db_pool_acquire_duration_seconds_total", "Time spent acquiring connections"), prometheus.CounterValue,
				func(s PoolStats) float64 { return s.AcquireSeconds }},
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.valueType, m.value(s), c.service)
	}
}

// RegisterPoolMetrics registers a collector for pool with the default registry.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) error {
	return prometheus.Register(NewPoolStatsCollector(PgxPoolStats(pool), service))
}
