// Package spdtest provides an in-process SPD3303X simulator that speaks the SCPI raw socket
// protocol over TCP, for tests and examples that have no hardware at hand.
package spdtest

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-spd3303x/logger"
)

// Server is a simulated power supply listening on a loopback port.
//
// Set commands produce no reply. Unknown or malformed commands produce no reply either and
// push an entry to the error queue read by "SYSTem:ERRor?".
type Server struct {
	ln     net.Listener
	logger logger.Logger

	load      float64
	overrides map[string]string

	mu       sync.Mutex
	device   DeviceState
	requests []string

	conns  *xsync.MapOf[uint64, net.Conn]
	connID atomic.Uint64
	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithSerial sets the serial number reported by "*IDN?".
func WithSerial(serial string) Option {
	return func(s *Server) { s.device.Identity.Serial = serial }
}

// WithLoad sets the resistance in ohms connected to both programmable channels.
func WithLoad(ohms float64) Option {
	return func(s *Server) { s.load = ohms }
}

// WithLogger sets the simulator logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithReply makes the simulator answer request with reply instead of simulating it. reply is
// written verbatim, so it must carry its own line terminator; an empty reply means no answer.
func WithReply(request string, reply string) Option {
	return func(s *Server) { s.overrides[request] = reply }
}

// NewServer starts a simulator on 127.0.0.1 with a random port.
func NewServer(opts ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln:        ln,
		logger:    logger.GetLogger(),
		load:      DefaultLoad,
		overrides: make(map[string]string),
		device:    newDeviceState(DefaultSerial),
		conns:     xsync.NewMapOf[uint64, net.Conn](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "spdtest", "addr", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() netip.AddrPort {
	return s.ln.Addr().(*net.TCPAddr).AddrPort()
}

// Host returns the listening address as "host:port".
func (s *Server) Host() string {
	return s.ln.Addr().String()
}

// Serial returns the serial number reported by the simulator.
func (s *Server) Serial() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.device.Identity.Serial
}

// State returns a copy of the simulated device state.
func (s *Server) State() DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.device
	st.Errors = append([]string(nil), s.device.Errors...)

	return st
}

// Requests returns every request line received so far, without terminators.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.requests...)
}

// DropConnections closes every client connection while the server keeps listening.
func (s *Server) DropConnections() {
	s.conns.Range(func(id uint64, conn net.Conn) bool {
		_ = conn.Close()
		s.conns.Delete(id)

		return true
	})
}

// Close stops the listener, drops all connections and waits for their handlers.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	err := s.ln.Close()
	s.DropConnections()
	s.wg.Wait()

	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.closed.Load() {
				s.logger.Error("spdtest: accept failed", "error", err)
			}

			return
		}

		id := s.connID.Add(1)
		s.conns.Store(id, conn)
		s.logger.Debug("spdtest: client connected", "remoteAddr", conn.RemoteAddr().String())

		s.wg.Add(1)
		go s.serve(id, conn)
	}
}

func (s *Server) serve(id uint64, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		_ = conn.Close()
		s.conns.Delete(id)
	}()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("spdtest: read failed", "error", err)
			}

			return
		}

		reply := s.Handle(strings.TrimRight(line, "\r\n"))
		if reply == "" {
			continue
		}
		if _, err := io.WriteString(conn, reply); err != nil {
			s.logger.Debug("spdtest: write failed", "error", err)
			return
		}
	}
}

// Handle processes one request line and returns the reply to write, which is empty for
// commands that produce no reply.
func (s *Server) Handle(line string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, line)

	if reply, ok := s.overrides[line]; ok {
		s.logger.Debug("spdtest: override", "request", line)
		return reply
	}

	for _, r := range routes {
		if reply, ok := r(s, line); ok {
			s.logger.Debug("spdtest: handled", "request", line, "reply", strings.TrimSuffix(reply, "\n"))
			return reply
		}
	}

	s.logger.Warn("spdtest: undefined command", "request", line)
	s.device.pushError("-113 Undefined header")

	return ""
}
