// Package config loads service configuration from YAML files and the
// environment. Files are resolved relative to the working directory, an
// optional .env file is loaded first, and environment variables override
// file values using an uppercased, underscore-separated key scheme
// (e.g. RESKIT_DATABASE_USER overrides database.user).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoaderConfig controls where configuration is read from.
type LoaderConfig struct {
	// ConfigFile is an explicit YAML config path. When empty, the loader
	// searches for <service>.yaml in the working directory and ./config.
	ConfigFile string
	// EnvFile is an explicit .env path. When empty, ./.env is used if present.
	EnvFile string
	// EnvPrefix namespaces environment overrides. Defaults to the
	// uppercased service name.
	EnvPrefix string
}

// Load resolves configuration files for the service and unmarshals the
// merged result into out (a pointer to a struct with mapstructure tags).
func Load(serviceName string, opts LoaderConfig, out any) error {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("yaml")

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = strings.ToUpper(serviceName)
	}
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(serviceName)
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			// Running on environment variables alone is supported.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("reading config for %s: %w", serviceName, err)
			}
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("unmarshaling config: %w", err)
	}
	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}
