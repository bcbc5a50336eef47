package spd3303x

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-spd3303x/logger"
	"github.com/arloliu/go-spd3303x/spd3303x/spdtest"
)

type fakeResolver struct {
	addrs []netip.Addr
	hosts []string
}

func (r *fakeResolver) LookupNetIP(_ context.Context, _ string, host string) ([]netip.Addr, error) {
	r.hosts = append(r.hosts, host)
	return r.addrs, nil
}

// fakeDialer refuses every address except accept, which it redirects to target.
type fakeDialer struct {
	mu     sync.Mutex
	dialed []string
	accept string
	target string
}

func (d *fakeDialer) DialContext(ctx context.Context, network string, address string) (net.Conn, error) {
	d.mu.Lock()
	d.dialed = append(d.dialed, address)
	d.mu.Unlock()

	if address != d.accept {
		return nil, fmt.Errorf("dial %s %s: connection refused", network, address)
	}

	var nd net.Dialer
	return nd.DialContext(ctx, network, d.target)
}

func TestConnectByName_Fallback(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv, err := spdtest.NewServer()
	require.NoError(err)
	defer srv.Close()

	resolver := &fakeResolver{addrs: []netip.Addr{
		netip.MustParseAddr("10.0.0.1"),
		netip.MustParseAddr("10.0.0.2"),
		netip.MustParseAddr("10.0.0.3"),
	}}
	dialer := &fakeDialer{accept: "10.0.0.3:5025", target: srv.Host()}

	ml := logger.NewMockLogger()
	ml.On("Warn", "spd3303x: failed to connect, trying next address", mock.Anything).Twice()
	ml.On("Info", "spd3303x: connected", mock.Anything).Once()
	ml.On("Debug", mock.Anything, mock.Anything).Maybe()

	s, err := ConnectByName(ctx, "spd3303x.lab", WithResolver(resolver), WithDialer(dialer), WithLogger(ml))
	require.NoError(err)
	defer s.Close()

	require.Equal([]string{"spd3303x.lab"}, resolver.hosts)
	require.Equal([]string{"10.0.0.1:5025", "10.0.0.2:5025", "10.0.0.3:5025"}, dialer.dialed)
	require.Equal(uint32(2), s.GetMetrics().ConnectFallbackCount.Load())

	_, err = s.Identity(ctx)
	require.NoError(err)

	ml.AssertExpectations(t)
}

func TestConnectByName_NoAddress(t *testing.T) {
	require := require.New(t)

	resolver := &fakeResolver{}
	dialer := &fakeDialer{}

	_, err := ConnectByName(context.Background(), "nowhere.lab", WithResolver(resolver), WithDialer(dialer))
	require.ErrorIs(err, ErrConnectFailed)
	require.ErrorIs(err, ErrNoAddress)
	require.Empty(dialer.dialed)
}

func TestConnectByName_AllFail(t *testing.T) {
	require := require.New(t)

	resolver := &fakeResolver{addrs: []netip.Addr{
		netip.MustParseAddr("10.0.0.1"),
		netip.MustParseAddr("fd00::1"),
	}}
	dialer := &fakeDialer{}

	_, err := ConnectByName(context.Background(), "spd3303x.lab:5026", WithResolver(resolver), WithDialer(dialer))
	require.ErrorIs(err, ErrConnectFailed)
	require.NotErrorIs(err, ErrNoAddress)
	require.Contains(err.Error(), "10.0.0.1:5026")
	require.Contains(err.Error(), "[fd00::1]:5026")
	require.Equal([]string{"10.0.0.1:5026", "[fd00::1]:5026"}, dialer.dialed)
}

func TestConnectByName_InvalidPort(t *testing.T) {
	require := require.New(t)

	resolver := &fakeResolver{}
	_, err := ConnectByName(context.Background(), "spd3303x.lab:99999", WithResolver(resolver))
	require.ErrorIs(err, ErrConnectFailed)
	require.Empty(resolver.hosts)
}

func TestConnectByName_Loopback(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv, err := spdtest.NewServer()
	require.NoError(err)
	defer srv.Close()

	s, err := ConnectByName(ctx, srv.Host())
	require.NoError(err)
	defer s.Close()
	require.NoError(s.VerifyIdentity(ctx, srv.Serial()))

	s2, err := ConnectByName(ctx, "127.0.0.1", WithPort(srv.Addr().Port()))
	require.NoError(err)
	defer s2.Close()
	require.NoError(s2.VerifyIdentity(ctx, srv.Serial()))
}

func TestConnectByAddress_Refused(t *testing.T) {
	require := require.New(t)

	// a closed listener's port refuses connections
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	addr := ln.Addr().(*net.TCPAddr).AddrPort()
	require.NoError(ln.Close())

	_, err = ConnectByAddress(context.Background(), addr)
	require.ErrorIs(err, ErrConnectFailed)
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		desc string
		opt  Option
	}{
		{desc: "zero port", opt: WithPort(0)},
		{desc: "zero dial timeout", opt: WithDialTimeout(0)},
		{desc: "small read buffer", opt: WithReadBufferSize(8)},
		{desc: "nil resolver", opt: WithResolver(nil)},
		{desc: "nil dialer", opt: WithDialer(nil)},
		{desc: "nil logger", opt: WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := NewConfig(tt.opt)
			require.Error(t, err)
		})
	}

	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, uint16(DefaultPort), cfg.Port())
	require.Equal(t, DefaultDialTimeout, cfg.DialTimeout())
	require.Equal(t, DefaultReadBufferSize, cfg.ReadBufferSize())
}
