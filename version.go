package pgbind

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/pgbind/pgbind/libpq"
)

// VersionFromNumber decodes a packed server version number. Numbers from 100000 on are MMmmmm and decode to
// MM.0.mmmm; older ones are MMmmpp and decode to MM.mm.pp. So 90605 is 9.6.5 and 100001 is 10.0.1.
func VersionFromNumber(n int) (*semver.Version, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pgbind: invalid server version number %d", n)
	}

	major, minor, patch := n/10000, n/100%100, n%100
	if n >= 100000 {
		minor, patch = 0, n%10000
	}
	return semver.NewVersion(fmt.Sprintf("%d.%d.%d", major, minor, patch))
}

// ParseVersion parses a server version string, such as the server_version parameter, into the same form as
// VersionFromNumber. "10.1" parses to 10.0.1 and "9.6.5" to 9.6.5.
func ParseVersion(s string) (*semver.Version, error) {
	n := libpq.ServerVersionNumber(s)
	if n == 0 {
		return nil, fmt.Errorf("pgbind: invalid server version %q", s)
	}
	return VersionFromNumber(n)
}

// MustParseVersion is like ParseVersion but panics if s cannot be parsed.
func MustParseVersion(s string) *semver.Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}
