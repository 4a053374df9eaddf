package libpq

import (
	"context"
	"strconv"
	"strings"
)

// Conn is a native connection handle. A Conn is not safe for concurrent use. Every method other than Finish must not
// be called after Finish.
type Conn interface {
	// Status returns the status of the connection.
	Status() ConnStatus

	// ErrorMessage returns the error message most recently generated by an operation on the connection. It includes a
	// trailing newline.
	ErrorMessage() string

	// Exec executes query with the simple query protocol. query may contain multiple statements; the result of the
	// last one is returned.
	Exec(ctx context.Context, query string) *Result

	// ExecParams executes a single statement with text parameters.
	ExecParams(ctx context.Context, query string, params []*string) *Result

	// Prepare creates a named prepared statement.
	Prepare(ctx context.Context, name, query string) *Result

	// DescribePrepared returns a result describing the parameters and columns of a named prepared statement.
	DescribePrepared(ctx context.Context, name string) *Result

	// ExecPrepared executes a named prepared statement with text parameters.
	ExecPrepared(ctx context.Context, name string, params []*string) *Result

	// Reset closes the connection to the server and establishes a new one with the same parameters.
	Reset(ctx context.Context)

	// Finish closes the connection and releases the handle.
	Finish()

	// ServerVersion returns the server version as a packed integer, or 0 if it is unknown.
	ServerVersion() int

	// ParameterStatus returns a parameter reported by the server, e.g. server_version.
	ParameterStatus(name string) string

	TransactionStatus() TransactionStatus

	// SetClientEncoding changes the client encoding of the session.
	SetClientEncoding(ctx context.Context, encoding string) error

	// ClientEncoding returns the current client encoding name.
	ClientEncoding() string

	// Settings returns the connection option values the handle was opened with, keyed by libpq keyword.
	Settings() map[string]string
}

// Driver opens native connections.
type Driver interface {
	// Connect opens a connection. It always returns a non-nil Conn that the caller must Finish, even when the status
	// is ConnectionBad.
	Connect(ctx context.Context, conninfo string) Conn
}

// ServerVersionNumber packs a server_version parameter the way libpq's PQserverVersion does. "9.6.5" becomes 90605
// and "10.1" becomes 100001. It returns 0 when s cannot be parsed.
func ServerVersionNumber(s string) int {
	// Strip suffixes such as "beta1" or " (Debian 13.4-1)".
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	parts := strings.Split(strings.Trim(s[:end], "."), ".")
	if len(parts) == 0 || parts[0] == "" {
		return 0
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		nums[i] = n
	}

	if nums[0] >= 10 {
		minor := 0
		if len(nums) > 1 {
			minor = nums[1]
		}
		return nums[0]*10000 + minor
	}

	v := nums[0] * 10000
	if len(nums) > 1 {
		v += nums[1] * 100
	}
	if len(nums) > 2 {
		v += nums[2]
	}
	return v
}
