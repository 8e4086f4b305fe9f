package database

import (
	"context"
	"database/sql/driver"
	"fmt"
)

// NewDSNConnector adapts a bare driver.Driver into a driver.Connector for
// drivers that do not implement driver.DriverContext (e.g. sqlite in tests).
func NewDSNConnector(d driver.Driver, dsn string) driver.Connector {
	return dsnConnector{dsn: dsn, driver: d}
}

type dsnConnector struct {
	dsn    string
	driver driver.Driver
}

func (c dsnConnector) Connect(_ context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c dsnConnector) Driver() driver.Driver { return c.driver }

// initConnector wraps a driver.Connector and executes an initialization
// statement once per new physical connection, before the connection is
// handed to the sql package's pool.
type initConnector struct {
	base    driver.Connector
	initSQL string
}

func (c initConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.base.Connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := execOnConn(ctx, conn, c.initSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init statement failed: %w", err)
	}
	return conn, nil
}

func (c initConnector) Driver() driver.Driver { return c.base.Driver() }

// execOnConn executes a statement directly on a driver connection, preferring
// the context-aware execer and falling back to prepared statements.
func execOnConn(ctx context.Context, conn driver.Conn, query string) error {
	if ec, ok := conn.(driver.ExecerContext); ok {
		_, err := ec.ExecContext(ctx, query, nil)
		return err
	}
	if e, ok := conn.(driver.Execer); ok { //nolint:staticcheck // fallback for legacy drivers
		_, err := e.Exec(query, nil)
		return err
	}
	stmt, err := conn.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	_, err = stmt.Exec(nil) //nolint:staticcheck // fallback for legacy drivers
	return err
}
