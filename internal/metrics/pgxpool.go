package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes connection pool statistics as Prometheus
// gauges under the mailcycle_db prefix.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	gauge := func(name, help string, value func(*pgxpool.Stat) int32) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "mailcycle",
			Subsystem: "db",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(value(pool.Stat()))
		})
	}

	prometheus.MustRegister(
		gauge("acquired_conns", "Connections currently acquired from the pool",
			func(s *pgxpool.Stat) int32 { return s.AcquiredConns() }),
		gauge("idle_conns", "Idle connections in the pool",
			func(s *pgxpool.Stat) int32 { return s.IdleConns() }),
		gauge("total_conns", "Total connections in the pool",
			func(s *pgxpool.Stat) int32 { return s.TotalConns() }),
		gauge("max_conns", "Configured connection ceiling for the pool",
			func(s *pgxpool.Stat) int32 { return s.MaxConns() }),
	)
}
