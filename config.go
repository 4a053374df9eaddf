package pgbind

import (
	"github.com/pgbind/pgbind/libpq"
)

const defaultStatementCacheCapacity = 128

// Config is the settings used to establish a connection. A Config must be created by ParseConfig. A manually
// initialized Config will cause ConnectConfig to panic.
type Config struct {
	// ConnString is the connection string, in key/value or URI form, given to the driver.
	ConnString string

	// ThrowError makes Connect, Reset and Execute return errors for failed connections and queries. When false, a
	// connection in the bad state or a result with an error status is returned for the caller to inspect.
	ThrowError bool

	// TypeMap and Conversions are the connection level overlays. They may be nil.
	TypeMap     *TypeMap
	Conversions *ConversionMap

	// Registry holds the library level overlays. ParseConfig sets it to DefaultRegistry().
	Registry *Registry

	Logger   Logger
	LogLevel LogLevel

	// StatementCacheCapacity is the maximum number of statements kept by PrepareCached. 0 disables the cache.
	StatementCacheCapacity int

	// Driver opens the native connection. ParseConfig sets it to libpq.PgconnDriver.
	Driver libpq.Driver

	createdByParseConfig bool
}

// ParseConfig creates a Config from a connection string. connString is validated the same way the native driver
// parses it: key/value and URI forms are accepted and unset keys fall back to the PG* environment variables.
func ParseConfig(connString string) (*Config, error) {
	if _, err := libpq.ParseSettings(connString); err != nil {
		return nil, &ConnectionError{Message: err.Error(), Status: libpq.ConnectionBad}
	}

	return &Config{
		ConnString:             connString,
		ThrowError:             true,
		Registry:               DefaultRegistry(),
		LogLevel:               LogLevelInfo,
		StatementCacheCapacity: defaultStatementCacheCapacity,
		Driver:                 libpq.PgconnDriver{},
		createdByParseConfig:   true,
	}, nil
}

// Copy returns a deep copy of the config that is safe to use and modify. The only exception is the Logger and Driver
// fields: they are shallow copied.
func (c *Config) Copy() *Config {
	newConfig := new(Config)
	*newConfig = *c
	if c.TypeMap != nil {
		newConfig.TypeMap = c.TypeMap.Clone()
	}
	if c.Conversions != nil {
		newConfig.Conversions = c.Conversions.Clone()
	}
	return newConfig
}
