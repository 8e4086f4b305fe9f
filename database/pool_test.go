package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/metric/noop"

	apperrors "github.com/skillsenselab/reskit/errors"
	"github.com/skillsenselab/reskit/logger"
)

func sqliteConnector() driver.Connector {
	return NewDSNConnector(&sqlite3.SQLiteDriver{}, ":memory:")
}

func testPoolConfig() PoolConfig {
	return PoolConfig{
		Partitions:      3,
		MinPool:         6,
		MaxPool:         21,
		CheckoutTimeout: 2 * time.Second,
	}
}

func TestNewPool_PartitionCount(t *testing.T) {
	pool, err := NewPool(context.Background(), testPoolConfig(), sqliteConnector(), logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer pool.Close()

	if got := pool.Stats().Partitions; got != 3 {
		t.Errorf("expected 3 partitions, got %d", got)
	}
}

func TestPool_AcquireRunsProbe(t *testing.T) {
	pool, err := NewPool(context.Background(), testPoolConfig(), sqliteConnector(), logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer pool.Close()

	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer conn.Close()

	var one int
	if err := conn.QueryRowContext(context.Background(), "SELECT 1").Scan(&one); err != nil {
		t.Fatalf("query on acquired connection failed: %v", err)
	}
	if one != 1 {
		t.Errorf("expected 1, got %d", one)
	}
}

func TestPool_InitSQLRunsPerConnection(t *testing.T) {
	cfg := testPoolConfig()
	cfg.InitSQL = "PRAGMA user_version = 7"

	pool, err := NewPool(context.Background(), cfg, sqliteConnector(), logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer pool.Close()

	// Every acquired connection must have seen the init statement,
	// whichever partition and physical connection served it.
	for i := 0; i < 5; i++ {
		conn, err := pool.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		var version int
		if err := conn.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version); err != nil {
			conn.Close()
			t.Fatalf("reading user_version failed: %v", err)
		}
		conn.Close()
		if version != 7 {
			t.Fatalf("expected user_version 7 on connection %d, got %d", i, version)
		}
	}
}

func TestPool_AcquireAfterCloseFails(t *testing.T) {
	pool, err := NewPool(context.Background(), testPoolConfig(), sqliteConnector(), logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err = pool.Acquire(context.Background())
	if !apperrors.IsNotRunning(err) {
		t.Errorf("expected NOT_RUNNING after Close, got %v", err)
	}
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	pool, err := NewPool(context.Background(), testPoolConfig(), sqliteConnector(), logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestPool_Ping(t *testing.T) {
	pool, err := NewPool(context.Background(), testPoolConfig(), sqliteConnector(), logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestPool_MetricsUnregisterOnClose(t *testing.T) {
	pool, err := NewPool(context.Background(), testPoolConfig(), sqliteConnector(), logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	if err := pool.RegisterMetrics(noop.NewMeterProvider().Meter("test")); err != nil {
		t.Fatalf("RegisterMetrics failed: %v", err)
	}
	if pool.unregisterMetrics == nil {
		t.Fatal("expected an unregister hook after registration")
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if pool.unregisterMetrics != nil {
		t.Error("Close must unregister pool metrics")
	}
}

// failingConnector simulates an unreachable database.
type failingConnector struct{}

func (failingConnector) Connect(context.Context) (driver.Conn, error) {
	return nil, errors.New("connection refused")
}

func (failingConnector) Driver() driver.Driver { return nil }

func TestNewPool_UnreachableTarget(t *testing.T) {
	_, err := NewPool(context.Background(), testPoolConfig(), failingConnector{}, logger.NewDefault("test"))
	if apperrors.CodeOf(err) != apperrors.ErrCodePoolUnavailable {
		t.Errorf("expected POOL_UNAVAILABLE for unreachable target, got %v", err)
	}
}

func TestNewPool_InitSQLFailureSurfacesOnFirstConnection(t *testing.T) {
	cfg := testPoolConfig()
	cfg.InitSQL = "NOT VALID SQL"

	_, err := NewPool(context.Background(), cfg, sqliteConnector(), logger.NewDefault("test"))
	if apperrors.CodeOf(err) != apperrors.ErrCodePoolUnavailable {
		t.Errorf("expected POOL_UNAVAILABLE for failing init statement, got %v", err)
	}
}
