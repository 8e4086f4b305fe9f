package database

import (
	"fmt"
	"net/url"
	"time"

	apperrors "github.com/skillsenselab/reskit/errors"
)

// Config holds the managed database resource configuration.
//
// Subprotocol, Subname, User and Password are required; Validate fails with
// a CONFIG_INVALID error before any I/O when one is missing. The remaining
// fields have defaults applied by ApplyDefaults.
type Config struct {
	// Subprotocol is the database scheme, e.g. "postgresql".
	Subprotocol string `mapstructure:"subprotocol"`

	// Subname is the host/database part of the URL, e.g. "//localhost:5432/app".
	Subname string `mapstructure:"subname"`

	// User is the database user.
	User string `mapstructure:"user"`

	// Password is the database password.
	Password string `mapstructure:"password"`

	// AutoMigration controls whether pending schema migrations run before
	// the pool is constructed. Defaults to true.
	AutoMigration *bool `mapstructure:"auto_migration"`

	// Partitions is the number of independently sized sub-pools.
	Partitions int `mapstructure:"partitions"`

	// MinPool is the global minimum connection budget, split evenly across
	// partitions.
	MinPool int `mapstructure:"min_pool"`

	// MaxPool is the global maximum connection budget, split evenly across
	// partitions.
	MaxPool int `mapstructure:"max_pool"`

	// InitSQL is an optional statement executed once per new physical
	// connection. Empty by default.
	InitSQL string `mapstructure:"init_sql"`

	// CheckoutTimeout bounds how long Acquire waits for a connection
	// (e.g. "5s"). Applied only when the caller's context has no deadline.
	CheckoutTimeout string `mapstructure:"checkout_timeout"`

	// Options carries passthrough settings, keyed with hyphen-separated
	// names. Keys containing "migration" are forwarded to the migration
	// tool, e.g. "migration-locations", "migration-table".
	Options map[string]string `mapstructure:"options"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.AutoMigration == nil {
		t := true
		c.AutoMigration = &t
	}
	if c.Partitions <= 0 {
		c.Partitions = 3
	}
	if c.MinPool <= 0 {
		c.MinPool = 6
	}
	if c.MaxPool <= 0 {
		c.MaxPool = 21
	}
	if c.CheckoutTimeout == "" {
		c.CheckoutTimeout = "5s"
	}
}

// Validate checks that required fields are present and parseable.
// It performs no I/O.
func (c *Config) Validate() error {
	for _, req := range []struct {
		name, value string
	}{
		{"subprotocol", c.Subprotocol},
		{"subname", c.Subname},
		{"user", c.User},
		{"password", c.Password},
	} {
		if req.value == "" {
			return apperrors.Configuration(fmt.Sprintf("database %s is required", req.name))
		}
	}
	if c.Partitions <= 0 {
		return apperrors.Configuration("database partitions must be > 0")
	}
	if c.MinPool > c.MaxPool {
		return apperrors.Configuration(fmt.Sprintf(
			"database min_pool (%d) must be <= max_pool (%d)", c.MinPool, c.MaxPool))
	}
	if c.MaxPool/c.Partitions == 0 {
		// Per-partition sizing is floor(budget / partitions); a partition
		// count larger than max_pool truncates every partition to zero.
		return apperrors.Configuration(fmt.Sprintf(
			"database max_pool (%d) divided across %d partitions truncates to zero connections",
			c.MaxPool, c.Partitions))
	}
	if c.CheckoutTimeout != "" {
		if _, err := time.ParseDuration(c.CheckoutTimeout); err != nil {
			return apperrors.Configuration(fmt.Sprintf(
				"invalid database checkout_timeout %q: %v", c.CheckoutTimeout, err))
		}
	}
	if _, err := url.Parse(c.URL()); err != nil {
		return apperrors.Configuration(fmt.Sprintf("invalid database URL %q: %v", c.URL(), err))
	}
	return nil
}

// AutoMigrate reports whether schema migrations run on Start.
func (c *Config) AutoMigrate() bool {
	return c.AutoMigration == nil || *c.AutoMigration
}

// URL composes the connection URL from subprotocol and subname,
// e.g. "postgres://localhost:5432/app". Credentials are not included.
func (c *Config) URL() string {
	return normalizeScheme(c.Subprotocol) + ":" + c.Subname
}

// DSN composes the connection string including credentials.
func (c *Config) DSN() (string, error) {
	u, err := url.Parse(c.URL())
	if err != nil {
		return "", apperrors.Configuration(fmt.Sprintf("invalid database URL %q: %v", c.URL(), err))
	}
	u.User = url.UserPassword(c.User, c.Password)
	return u.String(), nil
}

// checkoutTimeout returns the parsed checkout timeout, or zero when unset.
func (c *Config) checkoutTimeout() time.Duration {
	d, err := time.ParseDuration(c.CheckoutTimeout)
	if err != nil {
		return 0
	}
	return d
}

// normalizeScheme maps JDBC-style subprotocol names onto Go driver schemes.
func normalizeScheme(subprotocol string) string {
	if subprotocol == "postgresql" {
		return "postgres"
	}
	return subprotocol
}
