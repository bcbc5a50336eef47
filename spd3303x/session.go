package spd3303x

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/arloliu/go-spd3303x/logger"
	"github.com/arloliu/go-spd3303x/scpi"
)

// aLongTimeAgo is a deadline in the past, used to interrupt a blocked read or write.
var aLongTimeAgo = time.Unix(1, 0)

// Session is a control session with one power supply.
type Session struct {
	conn   net.Conn
	reader *bufio.Reader
	wbuf   []byte

	cfg     *Config
	logger  logger.Logger
	opState AtomicOpState
	metrics *SessionMetrics
}

// NewSession wraps an established stream in a Session.
func NewSession(conn net.Conn, opts ...Option) (*Session, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	return newSession(conn, cfg), nil
}

func newSession(conn net.Conn, cfg *Config) *Session {
	s := &Session{
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, cfg.ReadBufferSize()),
		wbuf:    make([]byte, 0, 128),
		cfg:     cfg,
		logger:  cfg.GetLogger().With("remoteAddr", addrString(conn.RemoteAddr())),
		metrics: newSessionMetrics(),
	}
	s.opState.state.Store(uint32(OpenedState))

	return s
}

// Execute writes req and, unless its reply type is scpi.EmptyResponse, reads and decodes the
// reply line. The reply type is bound to the request type at compile time:
//
//	resp, err := spd3303x.Execute[command.GetDHCPResponse](ctx, s, command.GetDHCPRequest{})
func Execute[R any, PR interface {
	*R
	scpi.Decoder
}](ctx context.Context, s *Session, req scpi.Request[R]) (R, error) {
	var resp R

	expectReply := scpi.ExpectsReply(resp)
	line, err := s.exchange(ctx, req, expectReply)
	if err != nil || !expectReply {
		return resp, err
	}

	resp, err = scpi.Decode[R, PR](line)
	if err != nil {
		s.metrics.incDecodeErrCount()
		s.logger.Warn("spd3303x: failed to decode reply", "reply", strings.TrimSuffix(line, "\n"), "error", err)

		return resp, err
	}

	return resp, nil
}

// Send writes a command that produces no reply. The device acknowledges nothing, so Send
// returns once the line is written.
func (s *Session) Send(ctx context.Context, req scpi.Request[scpi.EmptyResponse]) error {
	_, err := Execute[scpi.EmptyResponse](ctx, s, req)
	return err
}

// exchange writes one request line and, if expectReply is set, reads one reply line.
func (s *Session) exchange(ctx context.Context, req scpi.Encoder, expectReply bool) (string, error) {
	if !s.opState.IsOpened() {
		return "", ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	deadline, _ := ctx.Deadline()
	if err := s.conn.SetDeadline(deadline); err != nil {
		return "", s.transportFault(ctx, "deadline", err)
	}

	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetDeadline(aLongTimeAgo)
		close(interrupted)
	})
	defer func() {
		if !stop() {
			<-interrupted
		}
	}()

	s.wbuf = append(req.AppendSCPI(s.wbuf[:0]), '\n')
	header := scpi.Header(s.wbuf)
	s.metrics.incRequestCount(header)
	s.logger.Debug("spd3303x: write request", "request", string(s.wbuf[:len(s.wbuf)-1]))

	if _, err := s.conn.Write(s.wbuf); err != nil {
		return "", s.transportFault(ctx, "write", err)
	}
	if !expectReply {
		return "", nil
	}

	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", s.transportFault(ctx, "read", err)
	}
	s.metrics.incReplyCount()
	s.logger.Debug("spd3303x: read reply", "command", header, "reply", strings.TrimSuffix(line, "\n"))

	return line, nil
}

// transportFault closes the session, since the position in the stream is unknown after a
// partial write or read.
func (s *Session) transportFault(ctx context.Context, op string, err error) error {
	if ctxErr := contextErr(ctx); ctxErr != nil {
		err = errors.Join(ctxErr, err)
	}
	s.metrics.incTransportErrCount()
	s.logger.Error("spd3303x: transport failure, closing session", "op", op, "error", err)

	if closeErr := s.Close(); closeErr != nil {
		s.logger.Debug("spd3303x: failed to close TCP connection", "error", closeErr)
	}

	return &TransportError{Op: op, Err: err}
}

// contextErr is ctx.Err, except that a passed deadline is reported before the context timer fires.
func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}

	return nil
}

// Close closes the stream. Further requests fail with ErrSessionClosed. Closing a closed
// session is a no-op.
func (s *Session) Close() error {
	if !s.opState.ToClosing() {
		return nil
	}

	err := s.conn.Close()
	s.opState.ToClosed()
	s.logger.Debug("spd3303x: session closed")

	return err
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	return !s.opState.IsOpened()
}

// State returns the lifecycle state of the session.
func (s *Session) State() OpState {
	return s.opState.Get()
}

// GetMetrics returns the metrics of the session.
func (s *Session) GetMetrics() *SessionMetrics {
	return s.metrics
}

// GetLogger returns the session logger.
func (s *Session) GetLogger() logger.Logger {
	return s.logger
}

// RemoteAddr returns the address of the power supply.
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}

	return addr.String()
}
