// Package pgmock provides the ability to mock a PostgreSQL server.
package pgmock

import (
	"fmt"
	"io"
	"net"
	"reflect"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgproto3"
)

type Step interface {
	Step(*pgproto3.Backend) error
}

type Script struct {
	Steps []Step
}

func (s *Script) Run(backend *pgproto3.Backend) error {
	for _, step := range s.Steps {
		err := step.Step(backend)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Script) Step(backend *pgproto3.Backend) error {
	return s.Run(backend)
}

type expectMessageStep struct {
	want pgproto3.FrontendMessage
	any  bool
}

func (e *expectMessageStep) Step(backend *pgproto3.Backend) error {
	msg, err := backend.Receive()
	if err != nil {
		return err
	}

	if e.any && reflect.TypeOf(msg) == reflect.TypeOf(e.want) {
		return nil
	}

	if !reflect.DeepEqual(msg, e.want) {
		return fmt.Errorf("msg => %#v, e.want => %#v", msg, e.want)
	}

	return nil
}

type expectStartupMessageStep struct {
	want *pgproto3.StartupMessage
	any  bool
}

func (e *expectStartupMessageStep) Step(backend *pgproto3.Backend) error {
	msg, err := backend.ReceiveStartupMessage()
	if err != nil {
		return err
	}

	if e.any {
		return nil
	}

	if !reflect.DeepEqual(msg, e.want) {
		return fmt.Errorf("msg => %#v, e.want => %#v", msg, e.want)
	}

	return nil
}

// ExpectMessage expects the next frontend message to equal want.
func ExpectMessage(want pgproto3.FrontendMessage) Step {
	return expectMessage(want, false)
}

// ExpectAnyMessage expects the next frontend message to have the same type as want.
func ExpectAnyMessage(want pgproto3.FrontendMessage) Step {
	return expectMessage(want, true)
}

func expectMessage(want pgproto3.FrontendMessage, any bool) Step {
	if want, ok := want.(*pgproto3.StartupMessage); ok {
		return &expectStartupMessageStep{want: want, any: any}
	}

	return &expectMessageStep{want: want, any: any}
}

type sendMessageStep struct {
	msg pgproto3.BackendMessage
}

func (e *sendMessageStep) Step(backend *pgproto3.Backend) error {
	backend.Send(e.msg)
	return backend.Flush()
}

func SendMessage(msg pgproto3.BackendMessage) Step {
	return &sendMessageStep{msg: msg}
}

type waitForCloseMessageStep struct{}

func (e *waitForCloseMessageStep) Step(backend *pgproto3.Backend) error {
	for {
		msg, err := backend.Receive()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		if _, ok := msg.(*pgproto3.Terminate); ok {
			return nil
		}
	}
}

func WaitForClose() Step {
	return &waitForCloseMessageStep{}
}

// AcceptUnauthenticatedConnRequestSteps accepts a startup message and reports a UTF8 client encoding and the given
// server version.
func AcceptUnauthenticatedConnRequestSteps(serverVersion string) []Step {
	return []Step{
		ExpectAnyMessage(&pgproto3.StartupMessage{ProtocolVersion: pgproto3.ProtocolVersionNumber, Parameters: map[string]string{}}),
		SendMessage(&pgproto3.AuthenticationOk{}),
		SendMessage(&pgproto3.ParameterStatus{Name: "client_encoding", Value: "UTF8"}),
		SendMessage(&pgproto3.ParameterStatus{Name: "server_version", Value: serverVersion}),
		SendMessage(&pgproto3.BackendKeyData{ProcessID: 0, SecretKey: 0}),
		SendMessage(&pgproto3.ReadyForQuery{TxStatus: 'I'}),
	}
}

// Column describes one column of a scripted row description.
type Column struct {
	Name string
	OID  uint32
}

func rowDescription(columns []Column) *pgproto3.RowDescription {
	fields := make([]pgproto3.FieldDescription, len(columns))
	for i, c := range columns {
		fields[i] = pgproto3.FieldDescription{
			Name:         []byte(c.Name),
			DataTypeOID:  c.OID,
			DataTypeSize: -1,
			TypeModifier: -1,
		}
	}
	return &pgproto3.RowDescription{Fields: fields}
}

func dataRowSteps(rows [][][]byte) []Step {
	steps := make([]Step, 0, len(rows))
	for _, row := range rows {
		steps = append(steps, SendMessage(&pgproto3.DataRow{Values: row}))
	}
	return steps
}

// SimpleQuerySteps answers one simple protocol query with a row description, rows and a command tag.
func SimpleQuerySteps(columns []Column, rows [][][]byte, commandTag string) []Step {
	steps := []Step{ExpectAnyMessage(&pgproto3.Query{})}
	if len(columns) > 0 {
		steps = append(steps, SendMessage(rowDescription(columns)))
	}
	steps = append(steps, dataRowSteps(rows)...)
	steps = append(steps,
		SendMessage(&pgproto3.CommandComplete{CommandTag: []byte(commandTag)}),
		SendMessage(&pgproto3.ReadyForQuery{TxStatus: 'I'}),
	)
	return steps
}

// SimpleQueryErrorSteps answers one simple protocol query with an error.
func SimpleQueryErrorSteps(code, message string) []Step {
	return []Step{
		ExpectAnyMessage(&pgproto3.Query{}),
		SendMessage(&pgproto3.ErrorResponse{Severity: "ERROR", Code: code, Message: message}),
		SendMessage(&pgproto3.ReadyForQuery{TxStatus: 'I'}),
	}
}

// ExtendedQuerySteps answers one unnamed extended protocol execution as sent by pgconn's ExecParams.
func ExtendedQuerySteps(columns []Column, rows [][][]byte, commandTag string) []Step {
	steps := []Step{
		ExpectAnyMessage(&pgproto3.Parse{}),
		ExpectAnyMessage(&pgproto3.Bind{}),
		ExpectAnyMessage(&pgproto3.Describe{}),
		ExpectAnyMessage(&pgproto3.Execute{}),
		ExpectAnyMessage(&pgproto3.Sync{}),
		SendMessage(&pgproto3.ParseComplete{}),
		SendMessage(&pgproto3.BindComplete{}),
	}
	if len(columns) > 0 {
		steps = append(steps, SendMessage(rowDescription(columns)))
	} else {
		steps = append(steps, SendMessage(&pgproto3.NoData{}))
	}
	steps = append(steps, dataRowSteps(rows)...)
	steps = append(steps,
		SendMessage(&pgproto3.CommandComplete{CommandTag: []byte(commandTag)}),
		SendMessage(&pgproto3.ReadyForQuery{TxStatus: 'I'}),
	)
	return steps
}

// PrepareSteps answers a named Parse and statement Describe as sent by pgconn's Prepare.
func PrepareSteps(paramOIDs []uint32, columns []Column) []Step {
	steps := []Step{
		ExpectAnyMessage(&pgproto3.Parse{}),
		ExpectAnyMessage(&pgproto3.Describe{}),
		ExpectAnyMessage(&pgproto3.Sync{}),
		SendMessage(&pgproto3.ParseComplete{}),
		SendMessage(&pgproto3.ParameterDescription{ParameterOIDs: paramOIDs}),
	}
	if len(columns) > 0 {
		steps = append(steps, SendMessage(rowDescription(columns)))
	} else {
		steps = append(steps, SendMessage(&pgproto3.NoData{}))
	}
	steps = append(steps, SendMessage(&pgproto3.ReadyForQuery{TxStatus: 'I'}))
	return steps
}

// ExecPreparedSteps answers one execution of a named prepared statement as sent by pgconn's ExecPrepared.
func ExecPreparedSteps(columns []Column, rows [][][]byte, commandTag string) []Step {
	steps := []Step{
		ExpectAnyMessage(&pgproto3.Bind{}),
		ExpectAnyMessage(&pgproto3.Describe{}),
		ExpectAnyMessage(&pgproto3.Execute{}),
		ExpectAnyMessage(&pgproto3.Sync{}),
		SendMessage(&pgproto3.BindComplete{}),
	}
	if len(columns) > 0 {
		steps = append(steps, SendMessage(rowDescription(columns)))
	} else {
		steps = append(steps, SendMessage(&pgproto3.NoData{}))
	}
	steps = append(steps, dataRowSteps(rows)...)
	steps = append(steps,
		SendMessage(&pgproto3.CommandComplete{CommandTag: []byte(commandTag)}),
		SendMessage(&pgproto3.ReadyForQuery{TxStatus: 'I'}),
	)
	return steps
}

// Server serves scripts on a loopback TCP listener, one script per accepted connection, in order.
type Server struct {
	ln      net.Listener
	errChan chan error
}

// NewServer starts a server that runs scripts against successive connections.
func NewServer(scripts ...*Script) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return nil, err
	}

	s := &Server{ln: ln, errChan: make(chan error, 1)}

	go func() {
		defer close(s.errChan)

		for _, script := range scripts {
			if err := serveOne(ln, script); err != nil {
				s.errChan <- err
				return
			}
		}
	}()

	return s, nil
}

func serveOne(ln net.Listener, script *Script) error {
	conn, err := ln.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()

	err = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if err != nil {
		return err
	}

	return script.Run(pgproto3.NewBackend(conn, conn))
}

// ConnString returns a connection string for the server.
func (s *Server) ConnString() string {
	host, port, _ := strings.Cut(s.ln.Addr().String(), ":")
	return fmt.Sprintf("sslmode=disable host=%s port=%s user=mock dbname=mock", host, port)
}

// Wait waits for every script to finish and returns the first error.
func (s *Server) Wait() error {
	err := <-s.errChan
	s.ln.Close()
	return err
}

// Close stops accepting connections.
func (s *Server) Close() error {
	return s.ln.Close()
}
