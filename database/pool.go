package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/skillsenselab/reskit/errors"
	"github.com/skillsenselab/reskit/logger"
)

// Fixed operational policy for every pool.
const (
	// idleTestInterval is how often idle connections are tested in the
	// background.
	idleTestInterval = 2 * time.Minute
	// idleRecycleAfter is how long a connection may sit idle before it is
	// recycled.
	idleRecycleAfter = 10 * time.Minute
	// livenessProbe runs before a connection is handed out.
	livenessProbe = "SELECT 1"
)

// PoolConfig sizes a partitioned connection pool.
//
// MinPool and MaxPool are global budgets distributed evenly across
// Partitions: each partition gets floor(MinPool/Partitions) minimum and
// floor(MaxPool/Partitions) maximum connections. Choose Partitions so the
// floor division does not truncate to zero; the division is never rounded up.
type PoolConfig struct {
	Partitions      int
	MinPool         int
	MaxPool         int
	InitSQL         string
	CheckoutTimeout time.Duration
}

// PoolStats aggregates statistics across all partitions.
type PoolStats struct {
	Partitions   int           `json:"partitions"`
	Open         int           `json:"open_connections"`
	InUse        int           `json:"in_use_connections"`
	Idle         int           `json:"idle_connections"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

// Pool owns a partitioned set of connection sub-pools over database/sql.
// Splitting the pool across partitions reduces lock contention on checkout.
type Pool struct {
	cfg        PoolConfig
	partitions []*sql.DB
	next       atomic.Uint64
	log        *logger.Logger

	mu       sync.Mutex
	closed   bool
	stopIdle chan struct{}
	idleWG   sync.WaitGroup

	unregisterMetrics func() error
}

// NewPool opens one sub-pool per partition through the given connector and
// verifies connectivity with a first connection attempt. A failed first
// attempt returns a POOL_UNAVAILABLE error without retrying.
func NewPool(ctx context.Context, cfg PoolConfig, connector driver.Connector, log *logger.Logger) (*Pool, error) {
	if cfg.InitSQL != "" {
		connector = initConnector{base: connector, initSQL: cfg.InitSQL}
	}

	minPer, maxPer := partitionSizes(cfg.MinPool, cfg.MaxPool, cfg.Partitions)

	p := &Pool{
		cfg:        cfg,
		partitions: make([]*sql.DB, 0, cfg.Partitions),
		log:        log,
		stopIdle:   make(chan struct{}),
	}

	for i := 0; i < cfg.Partitions; i++ {
		db := sql.OpenDB(connector)
		db.SetMaxOpenConns(maxPer)
		db.SetMaxIdleConns(minPer)
		db.SetConnMaxIdleTime(idleRecycleAfter)
		p.partitions = append(p.partitions, db)
	}

	if err := p.partitions[0].PingContext(ctx); err != nil {
		for _, db := range p.partitions {
			db.Close()
		}
		return nil, apperrors.PoolUnavailable("Unable to establish an initial database connection.", err)
	}

	p.idleWG.Add(1)
	go p.testIdleConnections()

	p.log.Info("Connection pool ready", logger.Fields(
		"partitions", cfg.Partitions,
		"min_per_partition", minPer,
		"max_per_partition", maxPer,
	))
	return p, nil
}

// partitionSizes distributes the global min/max budget evenly across
// partitions using floor division.
func partitionSizes(minPool, maxPool, partitions int) (minPer, maxPer int) {
	return minPool / partitions, maxPool / partitions
}

// Acquire checks out a connection from the next partition, running the
// liveness probe before handing it out. The caller returns the connection
// to the pool with conn.Close(). Checkout waits at most CheckoutTimeout
// when the caller's context carries no deadline.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, apperrors.NotRunning("database connection pool")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && p.cfg.CheckoutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.CheckoutTimeout)
		defer cancel()
	}

	idx := int(p.next.Add(1) % uint64(len(p.partitions)))
	conn, err := p.partitions[idx].Conn(ctx)
	if err != nil {
		return nil, apperrors.PoolUnavailable("Connection checkout failed.", err).
			WithDetail("partition", idx)
	}

	var probe int
	if err := conn.QueryRowContext(ctx, livenessProbe).Scan(&probe); err != nil {
		conn.Close()
		return nil, apperrors.PoolUnavailable("Connection failed the liveness probe.", err).
			WithDetail("partition", idx)
	}
	return conn, nil
}

// Ping verifies connectivity on every partition.
func (p *Pool) Ping(ctx context.Context) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return apperrors.NotRunning("database connection pool")
	}

	for i, db := range p.partitions {
		if err := db.PingContext(ctx); err != nil {
			return apperrors.PoolUnavailable("Partition ping failed.", err).
				WithDetail("partition", i)
		}
	}
	return nil
}

// Stats returns pool statistics aggregated across partitions.
func (p *Pool) Stats() PoolStats {
	stats := PoolStats{Partitions: len(p.partitions)}
	for _, db := range p.partitions {
		s := db.Stats()
		stats.Open += s.OpenConnections
		stats.InUse += s.InUse
		stats.Idle += s.Idle
		stats.WaitCount += s.WaitCount
		stats.WaitDuration += s.WaitDuration
	}
	return stats
}

// Close releases every partition synchronously. Safe to call multiple times;
// subsequent Acquire calls fail with NOT_RUNNING.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.stopIdle)
	p.idleWG.Wait()

	if p.unregisterMetrics != nil {
		if err := p.unregisterMetrics(); err != nil {
			p.log.Warn("Failed to unregister pool metrics", logger.Fields("error", err.Error()))
		}
		p.unregisterMetrics = nil
	}

	var errs []error
	for _, db := range p.partitions {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.log.Info("Connection pool closed")
	return stderrors.Join(errs...)
}

// testIdleConnections pings each partition on a fixed interval so dead idle
// connections are detected and discarded between checkouts.
func (p *Pool) testIdleConnections() {
	defer p.idleWG.Done()

	ticker := time.NewTicker(idleTestInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopIdle:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			for i, db := range p.partitions {
				if err := db.PingContext(ctx); err != nil {
					p.log.Warn("Idle connection test failed", logger.Fields(
						"partition", i,
						"error", err.Error(),
					))
				}
			}
			cancel()
		}
	}
}
