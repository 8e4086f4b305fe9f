package config

import (
	"github.com/skillsenselab/reskit/database"
	"github.com/skillsenselab/reskit/logger"
)

// ServiceConfig is the top-level configuration for a service built on the
// reskit components.
type ServiceConfig struct {
	Logging  logger.Config   `mapstructure:"logging"`
	Database database.Config `mapstructure:"database"`
	Schedule ScheduleConfig  `mapstructure:"schedule"`
}

// ScheduleConfig configures the job scheduler component.
type ScheduleConfig struct {
	// Enabled controls whether the scheduler component is registered.
	Enabled bool `mapstructure:"enabled"`
}

// ApplyDefaults applies defaults to every section.
func (c *ServiceConfig) ApplyDefaults() {
	c.Logging.ApplyDefaults()
	c.Database.ApplyDefaults()
}

// Validate validates every section.
func (c *ServiceConfig) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.Database.Validate()
}
