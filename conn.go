package pgbind

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pgbind/pgbind/libpq"
	"go.uber.org/atomic"
	"golang.org/x/text/encoding"
)

// Connection is a connection to a PostgreSQL server. It owns its native connection handle until Close is called.
//
// A Connection is not safe for concurrent use. Open independent Connections, or use pgbindpool, for parallelism.
type Connection struct {
	config *Config
	native libpq.Conn

	encodingName string
	encoding     encoding.Encoding

	uid      *atomic.Uint64
	resetGen uint64

	typeMap     *TypeMap
	conversions *ConversionMap
	registry    *Registry

	stmtCache *lru.Cache[string, *Statement]

	logger   Logger
	logLevel LogLevel

	closed bool
}

// Connect establishes a connection with a PostgreSQL server with a connection string. See ParseConfig for details.
func Connect(ctx context.Context, connString string) (*Connection, error) {
	config, err := ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	return ConnectConfig(ctx, config)
}

// ConnectConfig establishes a connection with a PostgreSQL server with a configuration struct. config must have been
// created by ParseConfig.
//
// When config.ThrowError is set, a failed connection is closed and a *ConnectionError returned. Otherwise the
// Connection is returned in the bad state and the caller must Close or Reset it.
func ConnectConfig(ctx context.Context, config *Config) (*Connection, error) {
	if !config.createdByParseConfig {
		panic("config must be created by ParseConfig")
	}
	config = config.Copy()

	c := &Connection{
		config:      config,
		uid:         atomic.NewUint64(0),
		typeMap:     config.TypeMap,
		conversions: config.Conversions,
		registry:    config.Registry,
		logger:      config.Logger,
		logLevel:    config.LogLevel,
	}
	if c.typeMap == nil {
		c.typeMap = NewTypeMap()
	}
	if c.conversions == nil {
		c.conversions = NewConversionMap()
	}
	if c.registry == nil {
		c.registry = DefaultRegistry()
	}
	if config.StatementCacheCapacity > 0 {
		cache, err := lru.New[string, *Statement](config.StatementCacheCapacity)
		if err != nil {
			return nil, err
		}
		c.stmtCache = cache
	}

	driver := config.Driver
	if driver == nil {
		driver = libpq.PgconnDriver{}
	}

	startTime := time.Now()
	c.native = driver.Connect(ctx, config.ConnString)
	if err := c.handleNewConnection(ctx, "Connect", startTime); err != nil {
		return nil, err
	}
	return c, nil
}

// handleNewConnection checks the native connection after it was opened or reset and sets the client encoding.
func (c *Connection) handleNewConnection(ctx context.Context, op string, startTime time.Time) error {
	fail := func(msg string) error {
		if c.config.ThrowError {
			c.log(ctx, LogLevelError, op, map[string]any{"err": msg, "time": time.Since(startTime)})
			c.Close()
			return &ConnectionError{Message: msg, Status: libpq.ConnectionBad}
		}
		c.log(ctx, LogLevelWarn, op, map[string]any{"err": msg, "status": libpq.ConnectionBad.String(), "time": time.Since(startTime)})
		return nil
	}

	if c.native.Status() == libpq.ConnectionBad {
		return fail(strings.TrimRight(c.native.ErrorMessage(), "\n"))
	}

	if err := c.setEncoding(ctx, DefaultEncoding); err != nil {
		return fail(err.Error())
	}

	if c.shouldLog(LogLevelInfo) {
		c.log(ctx, LogLevelInfo, op, map[string]any{
			"serverVersion": c.native.ParameterStatus("server_version"),
			"time":          time.Since(startTime),
		})
	}
	return nil
}

// Close releases the native connection. Results obtained from c remain valid until they are closed. Close is
// idempotent.
func (c *Connection) Close() {
	if c.closed {
		return
	}
	c.closed = true

	c.log(context.Background(), LogLevelInfo, "Close", nil)
	c.native.Finish()
	c.native = nil

	if c.stmtCache != nil {
		c.stmtCache.Purge()
	}
}

// IsOpen reports whether Close has not been called.
func (c *Connection) IsOpen() bool {
	return !c.closed
}

// Reset closes the connection to the server and opens a new one with the same configuration. It is permitted while
// the connection is in the bad state. All Statements of c become invalid. Errors follow the same rules as
// ConnectConfig.
func (c *Connection) Reset(ctx context.Context) error {
	if c.closed {
		return &UseAfterCloseError{Object: "connection", Op: "Reset"}
	}

	startTime := time.Now()
	c.native.Reset(ctx)
	c.resetGen++
	if c.stmtCache != nil {
		c.stmtCache.Purge()
	}
	return c.handleNewConnection(ctx, "Reset", startTime)
}

// Status returns the status of the native connection. A closed connection is ConnectionBad.
func (c *Connection) Status() libpq.ConnStatus {
	if c.closed {
		return libpq.ConnectionBad
	}
	return c.native.Status()
}

// ErrorMessage returns the error message most recently generated by the native connection.
func (c *Connection) ErrorMessage() string {
	if c.closed {
		return ""
	}
	return c.native.ErrorMessage()
}

// TransactionStatus returns the in-transaction status of the session.
func (c *Connection) TransactionStatus() libpq.TransactionStatus {
	if c.closed {
		return libpq.TransactionUnknown
	}
	return c.native.TransactionStatus()
}

// ServerVersion returns the version of the server.
func (c *Connection) ServerVersion() (*semver.Version, error) {
	if c.closed {
		return nil, &UseAfterCloseError{Object: "connection", Op: "ServerVersion"}
	}
	return VersionFromNumber(c.native.ServerVersion())
}

// Encoding returns the client encoding of the session.
func (c *Connection) Encoding() string {
	return c.encodingName
}

// SetEncoding changes the client encoding of the session. Text copied out of results of later executions is decoded
// from encoding, and string parameters are encoded to it.
func (c *Connection) SetEncoding(ctx context.Context, name string) error {
	if c.closed {
		return &UseAfterCloseError{Object: "connection", Op: "SetEncoding"}
	}
	return c.setEncoding(ctx, name)
}

// ResetEncoding sets the client encoding back to DefaultEncoding.
func (c *Connection) ResetEncoding(ctx context.Context) error {
	return c.SetEncoding(ctx, DefaultEncoding)
}

func (c *Connection) setEncoding(ctx context.Context, name string) error {
	canonical, enc, err := lookupEncoding(name)
	if err != nil {
		return err
	}
	if err := c.native.SetClientEncoding(ctx, canonical); err != nil {
		return fmt.Errorf("pgbind: set client encoding %s: %w", canonical, err)
	}
	c.encodingName = canonical
	c.encoding = enc
	return nil
}

// TypeMap returns the connection level type map.
func (c *Connection) TypeMap() *TypeMap {
	return c.typeMap
}

// Conversions returns the connection level conversion map.
func (c *Connection) Conversions() *ConversionMap {
	return c.conversions
}

// Config returns a copy of the config that was used to establish this connection.
func (c *Connection) Config() *Config {
	return c.config.Copy()
}

// UniqueID returns an identifier that was never returned before by c, including across resets. The result is a
// valid unquoted SQL identifier made of the lowercased prefix, two underscores and a counter.
func (c *Connection) UniqueID(prefix string) string {
	n := c.uid.Inc()
	return sanitizeIdentifier(prefix) + "__" + strconv.FormatUint(n, 10)
}

func sanitizeIdentifier(prefix string) string {
	sb := &strings.Builder{}
	for _, r := range strings.ToLower(prefix) {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if sb.Len() == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}

	s := sb.String()
	if s == "" {
		s = "id"
	}
	// 63 is NAMEDATALEN-1; leave room for the counter.
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

// Conninfo returns the options of the connection.
func (c *Connection) Conninfo() ([]ConnectionOption, error) {
	if c.closed {
		return nil, &UseAfterCloseError{Object: "connection", Op: "Conninfo"}
	}
	return conninfoFromSettings(c.native.Settings()), nil
}

func (c *Connection) String() string {
	if c.closed {
		return "PostgreSQL connection (closed)"
	}

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "PostgreSQL connection (%s) with parameters:", c.Status())
	options, _ := c.Conninfo()
	for _, o := range options {
		if o.Value == "" || o.Display != ConninfoDisplayNormal {
			continue
		}
		fmt.Fprintf(sb, "\n  %s = %s", o.Keyword, o.Value)
	}
	return sb.String()
}
