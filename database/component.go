package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/metric"

	"github.com/skillsenselab/reskit/component"
	"github.com/skillsenselab/reskit/database/migration"
	apperrors "github.com/skillsenselab/reskit/errors"
	"github.com/skillsenselab/reskit/logger"
)

// PoolHandle is the read-only handle a started component exposes to
// dependents. The handle exists only while the component is started; the
// component retains exclusive ownership of the underlying pool.
type PoolHandle interface {
	// Acquire checks out a pooled connection. The caller returns it with
	// conn.Close().
	Acquire(ctx context.Context) (*sql.Conn, error)
	// Ping verifies connectivity across partitions.
	Ping(ctx context.Context) error
	// Stats returns aggregated pool statistics.
	Stats() PoolStats
	// RegisterMetrics exposes pool statistics on the given meter. The
	// instruments are unregistered when the pool closes.
	RegisterMetrics(meter metric.Meter) error
	// Close releases all pooled connections synchronously.
	Close() error
}

var _ PoolHandle = (*Pool)(nil)

// Migrator applies pending schema migrations for a derived plan.
type Migrator interface {
	Run(ctx context.Context, plan migration.Plan) error
}

// OpenFunc constructs the pool for a validated configuration.
type OpenFunc func(ctx context.Context, cfg Config, log *logger.Logger) (PoolHandle, error)

// Component is the lifecycle wrapper around the managed database resource.
// Start sequences migration strictly before pool construction; Start and
// Stop are idempotent, detected by the presence of a live pool handle.
type Component struct {
	cfg      Config
	log      *logger.Logger
	pool     PoolHandle
	migrator Migrator
	open     OpenFunc
	meter    metric.Meter
}

// NewComponent creates a database component for use with the component
// registry. The pool is constructed on Start, not here.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{
		cfg:  cfg,
		log:  log.WithComponent("database"),
		open: OpenPool,
	}
}

// WithMigrator replaces the default migration runner.
func (c *Component) WithMigrator(m Migrator) *Component {
	c.migrator = m
	return c
}

// WithOpener replaces the default pool constructor.
func (c *Component) WithOpener(open OpenFunc) *Component {
	c.open = open
	return c
}

// WithMeter registers pool statistics instruments on the given meter once
// the pool is constructed.
func (c *Component) WithMeter(meter metric.Meter) *Component {
	c.meter = meter
	return c
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start validates the configuration, applies pending migrations when
// auto-migration is enabled, then constructs the pool. Any failure leaves
// the component in the not-started state. Starting an already-started
// component is a no-op.
func (c *Component) Start(ctx context.Context) error {
	if c.pool != nil {
		c.log.Info("Skipping start; DB connection pool already running.")
		return nil
	}

	c.cfg.ApplyDefaults()
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.log.Info(fmt.Sprintf("Starting DB connection pool for %s.", c.cfg.URL()))

	if c.cfg.AutoMigrate() {
		plan, err := migration.NewPlan(c.cfg.Options, c.cfg.URL(), c.cfg.User, c.cfg.Password)
		if err != nil {
			return err
		}
		m := c.migrator
		if m == nil {
			m = migration.NewRunner(c.log)
		}
		if err := m.Run(ctx, plan); err != nil {
			return err
		}
	}

	pool, err := c.open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.pool = pool

	if c.meter != nil {
		if err := pool.RegisterMetrics(c.meter); err != nil {
			// Observability never affects the lifecycle transition.
			c.log.Warn("Failed to register pool metrics", logger.Fields("error", err.Error()))
		}
	}
	return nil
}

// Stop releases the pool synchronously and clears the handle. Stopping an
// already-stopped component is a no-op.
func (c *Component) Stop(_ context.Context) error {
	if c.pool == nil {
		c.log.Info("Skipping stop; DB connection pool not running.")
		return nil
	}

	c.log.Info("Stopping DB connection pool.")
	err := c.pool.Close()
	c.pool = nil
	return err
}

// Pool returns the live pool handle, or nil if the component is not started.
func (c *Component) Pool() PoolHandle { return c.pool }

// Health returns the current health status of the database.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.pool == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "database pool not running",
		}
	}

	if err := c.pool.Ping(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

// Describe returns infrastructure summary info for startup display.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s partitions=%d pool=%d/%d",
		c.cfg.URL(), c.cfg.Partitions, c.cfg.MinPool, c.cfg.MaxPool)
	if c.cfg.AutoMigrate() {
		details += " auto-migration=on"
	}
	return component.Description{
		Name:    "PostgreSQL",
		Type:    "database",
		Details: details,
	}
}

// OpenPool is the default OpenFunc, backed by the pq connector.
func OpenPool(ctx context.Context, cfg Config, log *logger.Logger) (PoolHandle, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, apperrors.Configuration(fmt.Sprintf("invalid connection string: %v", err))
	}
	return NewPool(ctx, PoolConfig{
		Partitions:      cfg.Partitions,
		MinPool:         cfg.MinPool,
		MaxPool:         cfg.MaxPool,
		InitSQL:         cfg.InitSQL,
		CheckoutTimeout: cfg.checkoutTimeout(),
	}, connector, log)
}
