package pgbind

import (
	"fmt"

	"github.com/pgbind/pgbind/libpq"
)

// ConninfoDisplay tells how a connection option should be shown in a connect dialog.
type ConninfoDisplay int

const (
	// ConninfoDisplayNormal options are shown as is.
	ConninfoDisplayNormal ConninfoDisplay = iota
	// ConninfoDisplayPassword options are hidden.
	ConninfoDisplayPassword
	// ConninfoDisplayDebug options are not shown by default.
	ConninfoDisplayDebug
)

// ParseConninfoDisplay parses the display character libpq uses: "" is normal, "*" password and "D" debug.
func ParseConninfoDisplay(s string) (ConninfoDisplay, error) {
	switch s {
	case "":
		return ConninfoDisplayNormal, nil
	case "*":
		return ConninfoDisplayPassword, nil
	case "D":
		return ConninfoDisplayDebug, nil
	default:
		return 0, fmt.Errorf("pgbind: invalid conninfo display %q", s)
	}
}

func (d ConninfoDisplay) String() string {
	switch d {
	case ConninfoDisplayNormal:
		return "Normal"
	case ConninfoDisplayPassword:
		return "Password"
	case ConninfoDisplayDebug:
		return "Debug"
	default:
		return fmt.Sprintf("ConninfoDisplay(%d)", int(d))
	}
}

// ConnectionOption is one connection option and its value.
type ConnectionOption struct {
	Keyword string
	// EnvVar is the environment variable the option falls back to, or "".
	EnvVar string
	// Compiled is the built-in default value, or "".
	Compiled string
	Value    string
	Label    string
	Display  ConninfoDisplay
	// DisplaySize is the field size in characters for a connect dialog.
	DisplaySize int
}

type conninfoOption struct {
	keyword, envVar, compiled, label, dispChar string
	dispSize                                   int
}

var conninfoOptions = []conninfoOption{
	{"service", "PGSERVICE", "", "Database-Service", "", 20},
	{"user", "PGUSER", "", "Database-User", "", 20},
	{"password", "PGPASSWORD", "", "Database-Password", "*", 20},
	{"passfile", "PGPASSFILE", "", "Database-Password-File", "", 64},
	{"channel_binding", "PGCHANNELBINDING", "prefer", "Channel-Binding", "", 8},
	{"connect_timeout", "PGCONNECT_TIMEOUT", "", "Connect-timeout", "", 10},
	{"dbname", "PGDATABASE", "", "Database-Name", "", 20},
	{"host", "PGHOST", "", "Database-Host", "", 40},
	{"hostaddr", "PGHOSTADDR", "", "Database-Host-IP-Address", "", 45},
	{"port", "PGPORT", "5432", "Database-Port", "", 6},
	{"client_encoding", "PGCLIENTENCODING", "", "Client-Encoding", "", 10},
	{"options", "PGOPTIONS", "", "Backend-Options", "", 40},
	{"application_name", "PGAPPNAME", "", "Application-Name", "", 64},
	{"fallback_application_name", "", "", "Fallback-Application-Name", "", 64},
	{"keepalives", "", "", "TCP-Keepalives", "", 1},
	{"keepalives_idle", "", "", "TCP-Keepalives-Idle", "", 10},
	{"keepalives_interval", "", "", "TCP-Keepalives-Interval", "", 10},
	{"keepalives_count", "", "", "TCP-Keepalives-Count", "", 10},
	{"tcp_user_timeout", "", "", "TCP-User-Timeout", "", 10},
	{"sslmode", "PGSSLMODE", "prefer", "SSL-Mode", "", 12},
	{"sslcompression", "PGSSLCOMPRESSION", "0", "SSL-Compression", "", 1},
	{"sslcert", "PGSSLCERT", "", "SSL-Client-Cert", "", 64},
	{"sslkey", "PGSSLKEY", "", "SSL-Client-Key", "", 64},
	{"sslpassword", "", "", "SSL-Client-Key-Password", "*", 20},
	{"sslrootcert", "PGSSLROOTCERT", "", "SSL-Root-Certificate", "", 64},
	{"sslcrl", "PGSSLCRL", "", "SSL-Revocation-List", "", 64},
	{"sslsni", "PGSSLSNI", "1", "SSL-SNI", "", 1},
	{"requirepeer", "PGREQUIREPEER", "", "Require-Peer", "", 10},
	{"ssl_min_protocol_version", "PGSSLMINPROTOCOLVERSION", "TLSv1.2", "SSL-Minimum-Protocol-Version", "", 8},
	{"ssl_max_protocol_version", "PGSSLMAXPROTOCOLVERSION", "", "SSL-Maximum-Protocol-Version", "", 8},
	{"gssencmode", "PGGSSENCMODE", "disable", "GSSENC-Mode", "", 8},
	{"krbsrvname", "PGKRBSRVNAME", "postgres", "Kerberos-service-name", "", 20},
	{"gsslib", "PGGSSLIB", "", "GSS-library", "", 7},
	{"replication", "", "", "Replication", "D", 5},
	{"target_session_attrs", "PGTARGETSESSIONATTRS", "any", "Target-Session-Attrs", "", 15},
}

// Conninfo parses connString and returns every known connection option with the value it resolves to, after
// environment variable and default fallbacks.
func Conninfo(connString string) ([]ConnectionOption, error) {
	settings, err := libpq.ParseSettings(connString)
	if err != nil {
		return nil, err
	}
	return conninfoFromSettings(settings), nil
}

func conninfoFromSettings(settings map[string]string) []ConnectionOption {
	options := make([]ConnectionOption, len(conninfoOptions))
	for i, o := range conninfoOptions {
		display, err := ParseConninfoDisplay(o.dispChar)
		if err != nil {
			panic(err)
		}
		options[i] = ConnectionOption{
			Keyword:     o.keyword,
			EnvVar:      o.envVar,
			Compiled:    o.compiled,
			Value:       settings[o.keyword],
			Label:       o.label,
			Display:     display,
			DisplaySize: o.dispSize,
		}
	}
	return options
}
