package services

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/database"
)

type HealthCheck func(ctx context.Context) error

type HealthService struct {
	critical    map[string]HealthCheck
	nonCritical map[string]HealthCheck
	db          *database.Database
	metrics     *Metrics
	logger      *logrus.Logger
}

type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]string      `json:"services"`
	Critical    []string               `json:"critical_failures,omitempty"`
	NonCritical []string               `json:"non_critical_failures,omitempty"`
	Latency     time.Duration          `json:"latency,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// NewHealthService checks PostgreSQL and hot Redis as critical dependencies,
// warm Redis and Neo4j (when configured) as non-critical.
func NewHealthService(db *database.Database, metrics *Metrics, logger *logrus.Logger) *HealthService {
	critical := map[string]HealthCheck{
		"postgresql": func(ctx context.Context) error { return db.PG.Ping(ctx) },
		"redis_hot":  func(ctx context.Context) error { return db.Redis.Hot.Ping(ctx).Err() },
	}
	nonCritical := map[string]HealthCheck{
		"redis_warm": func(ctx context.Context) error { return db.Redis.Warm.Ping(ctx).Err() },
	}
	if db.Neo4j != nil {
		nonCritical["neo4j"] = func(ctx context.Context) error { return db.Neo4j.VerifyConnectivity(ctx) }
	}

	hs := NewHealthServiceWithChecks(critical, nonCritical, metrics, logger)
	hs.db = db
	return hs
}

func NewHealthServiceWithChecks(critical, nonCritical map[string]HealthCheck, metrics *Metrics, logger *logrus.Logger) *HealthService {
	return &HealthService{
		critical:    critical,
		nonCritical: nonCritical,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	started := time.Now()
	status := &HealthStatus{
		Timestamp: started,
		Services:  make(map[string]string),
	}

	status.Critical = s.runChecks(ctx, s.critical, status, true)
	status.NonCritical = s.runChecks(ctx, s.nonCritical, status, false)

	switch {
	case len(status.Critical) > 0:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}
	status.Latency = time.Since(started)

	return status
}

func (s *HealthService) runChecks(ctx context.Context, checks map[string]HealthCheck, status *HealthStatus, critical bool) []string {
	var failed []string
	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := check(checkCtx)
		cancel()

		if err != nil {
			status.Services[name] = "unhealthy"
			failed = append(failed, name)
			entry := s.logger.WithError(err).WithField("service", name)
			if critical {
				entry.Error("Critical service is unhealthy")
			} else {
				entry.Warn("Non-critical service is unhealthy")
			}
			s.metrics.UpdateHealth(name, false)
			continue
		}

		status.Services[name] = "healthy"
		s.metrics.UpdateHealth(name, true)
	}
	sort.Strings(failed)
	return failed
}

// CollectPoolMetrics samples PostgreSQL pool statistics until ctx is done.
func (s *HealthService) CollectPoolMetrics(ctx context.Context, interval time.Duration) {
	if s.db == nil || s.db.PG == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.db.PG.Stat()
			s.metrics.SetConnectionPool("acquired_conns", float64(stats.AcquiredConns()))
			s.metrics.SetConnectionPool("idle_conns", float64(stats.IdleConns()))
			s.metrics.SetConnectionPool("total_conns", float64(stats.TotalConns()))
			s.metrics.SetConnectionPool("max_conns", float64(stats.MaxConns()))
		}
	}
}
