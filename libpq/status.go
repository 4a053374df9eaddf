package libpq

import "fmt"

// ConnStatus is the status of a connection handle. Only ConnectionOK and ConnectionBad are reported because only
// blocking connections are supported.
type ConnStatus int

const (
	ConnectionOK ConnStatus = iota
	ConnectionBad
)

func (s ConnStatus) String() string {
	switch s {
	case ConnectionOK:
		return "CONNECTION_OK"
	case ConnectionBad:
		return "CONNECTION_BAD"
	default:
		return fmt.Sprintf("ConnStatus(%d)", int(s))
	}
}

// ExecStatus is the status of a result handle.
type ExecStatus int

const (
	EmptyQuery ExecStatus = iota
	CommandOK
	TuplesOK
	CopyOut
	CopyIn
	BadResponse
	NonfatalError
	FatalError
)

func (s ExecStatus) String() string {
	switch s {
	case EmptyQuery:
		return "PGRES_EMPTY_QUERY"
	case CommandOK:
		return "PGRES_COMMAND_OK"
	case TuplesOK:
		return "PGRES_TUPLES_OK"
	case CopyOut:
		return "PGRES_COPY_OUT"
	case CopyIn:
		return "PGRES_COPY_IN"
	case BadResponse:
		return "PGRES_BAD_RESPONSE"
	case NonfatalError:
		return "PGRES_NONFATAL_ERROR"
	case FatalError:
		return "PGRES_FATAL_ERROR"
	default:
		return fmt.Sprintf("ExecStatus(%d)", int(s))
	}
}

// IsError reports whether s is a status the binding must treat as a failed execution.
func (s ExecStatus) IsError() bool {
	return s == FatalError || s == BadResponse
}

// TransactionStatus is the in-transaction status of the server session.
type TransactionStatus int

const (
	TransactionIdle TransactionStatus = iota
	TransactionActive
	TransactionInTrans
	TransactionInError
	TransactionUnknown
)

func (s TransactionStatus) String() string {
	switch s {
	case TransactionIdle:
		return "PQTRANS_IDLE"
	case TransactionActive:
		return "PQTRANS_ACTIVE"
	case TransactionInTrans:
		return "PQTRANS_INTRANS"
	case TransactionInError:
		return "PQTRANS_INERROR"
	case TransactionUnknown:
		return "PQTRANS_UNKNOWN"
	default:
		return fmt.Sprintf("TransactionStatus(%d)", int(s))
	}
}

// TransactionStatusFromByte converts the status byte of a ReadyForQuery message.
func TransactionStatusFromByte(b byte) TransactionStatus {
	switch b {
	case 'I':
		return TransactionIdle
	case 'T':
		return TransactionInTrans
	case 'E':
		return TransactionInError
	default:
		return TransactionUnknown
	}
}
