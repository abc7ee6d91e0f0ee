package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/sqlgate/sqlgate"
	"github.com/sqlgate/sqlgate/bridge"
	"github.com/sqlgate/sqlgate/core"
)

// Server is a TCP server that exposes the bridge protocol. Each line
// from a client is either an AUTH command or a JSON request; each
// reply is one JSON response line.
type Server struct {
	listener   net.Listener
	instance   *sqlgate.Instance
	authConfig *AuthConfig
	done       chan struct{}
	wg         sync.WaitGroup
}

// session tracks per-connection state: authentication and the handles
// this client allocated, so they can be reclaimed on disconnect.
type session struct {
	state   ConnectionState
	handles map[int64]struct{}
}

// NewServer creates a new bridge server over the given instance.
func NewServer(instance *sqlgate.Instance, authConfig *AuthConfig) *Server {
	return &Server{
		instance:   instance,
		authConfig: authConfig,
		done:       make(chan struct{}),
	}
}

// Start begins listening for connections on the specified address.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	log.Printf("sqlgate server listening on %s", addr)

	go s.acceptLoop()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) bridge() *bridge.Bridge {
	return s.instance.Bridge()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Printf("Accept error: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	log.Printf("Client connected: %s", conn.RemoteAddr())

	sess := &session{handles: make(map[int64]struct{})}
	defer s.reclaim(sess)

	reader := bufio.NewReader(conn)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		// One request per line.
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Printf("Read error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			log.Printf("Client disconnected: %s", conn.RemoteAddr())
			return
		}

		var response Response
		if strings.HasPrefix(strings.ToUpper(line), "AUTH ") {
			response = s.handleAuth(line, &sess.state)
		} else if s.authRequired() && !sess.state.IsAuthenticated() {
			response = Response{Success: false, Type: "auth", Error: "authentication required"}
		} else {
			request, err := DecodeRequest([]byte(line))
			if err != nil {
				response = Response{Success: false, Error: fmt.Sprintf("invalid request: %v", err)}
			} else {
				response = s.executeRequest(request, sess)
			}
		}

		data, err := EncodeResponse(response)
		if err != nil {
			log.Printf("Failed to encode response: %v", err)
			continue
		}

		if _, err := conn.Write(data); err != nil {
			log.Printf("Write error to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *Server) authRequired() bool {
	return s.authConfig != nil && s.authConfig.Enabled
}

// reclaim finalizes every handle the session still owns.
func (s *Server) reclaim(sess *session) {
	for handle := range sess.handles {
		s.bridge().Finalize(handle)
	}
}

// executeRequest dispatches one bridge operation.
func (s *Server) executeRequest(req Request, sess *session) Response {
	b := s.bridge()

	switch req.Op {
	case OpOpen:
		return errResponse("open", b.OpenDatabase(req.Database))

	case OpClose:
		return errResponse("close", b.CloseDatabase(req.Database))

	case OpPrepare:
		handle, err := b.Prepare(req.Database, req.SQL)
		if err != nil {
			return failure("prepare", err)
		}
		sess.handles[handle] = struct{}{}
		return okResponse("prepare", PrepareResult{Handle: handle})

	case OpBindInt:
		return errResponse("bind", b.BindInt(req.Handle, req.Int))

	case OpBindText:
		return errResponse("bind", b.BindText(req.Handle, req.Text))

	case OpExecute:
		return errResponse("execute", b.Execute(req.Handle))

	case OpResultErr:
		hasErr, message, err := b.ResultErr(req.Handle)
		if err != nil {
			return failure("result_err", err)
		}
		return okResponse("result_err", StatementErrorResult{HasError: hasErr, Message: message})

	case OpResultRow:
		hasRow, err := b.ResultRow(req.Handle)
		if err != nil {
			return failure("result_row", err)
		}
		return okResponse("result_row", RowResult{HasRow: hasRow})

	case OpColCount:
		count, err := b.ColumnCount(req.Handle)
		if err != nil {
			return failure("column", err)
		}
		return okResponse("column", CountResult{Count: count})

	case OpColName:
		name, err := b.ColumnName(req.Handle, req.Index)
		if err != nil {
			return failure("column", err)
		}
		return okResponse("column", NameResult{Name: name})

	case OpColType:
		tag, err := b.ColumnType(req.Handle, req.Index)
		if err != nil {
			return failure("column", err)
		}
		return okResponse("column", TypeResult{Type: int(tag)})

	case OpColInt:
		value, err := b.ColumnInt(req.Handle, req.Index)
		if err != nil {
			return failure("column", err)
		}
		return okResponse("column", IntResult{Value: value})

	case OpColText:
		value, err := b.ColumnText(req.Handle, req.Index)
		if err != nil {
			return failure("column", err)
		}
		return okResponse("column", TextResult{Value: value})

	case OpFinalize:
		delete(sess.handles, req.Handle)
		return errResponse("finalize", b.Finalize(req.Handle))

	default:
		return Response{Success: false, Error: fmt.Sprintf("unsupported operation: %q", req.Op)}
	}
}

// errResponse wraps an operation that only reports a protocol error.
func errResponse(typ string, err *core.Error) Response {
	if err != nil {
		return failure(typ, err)
	}
	return Response{Success: true, Type: typ}
}

func failure(typ string, err *core.Error) Response {
	return Response{
		Success: false,
		Type:    typ,
		Code:    int(err.Code),
		Error:   err.Message,
	}
}
