package spd3303x

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// ConnectByName resolves host and connects to the first address that accepts a connection.
//
// host is "name" or "name:port"; without a port the configured port (DefaultPort unless
// WithPort is given) is used. Candidate addresses are dialed in the order the resolver
// returns them. If none accepts, the returned error matches ErrConnectFailed and wraps
// every per-address failure. If the name resolves to no address, nothing is dialed and
// the error also matches ErrNoAddress.
func ConnectByName(ctx context.Context, host string, opts ...Option) (*Session, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	name, port, err := splitHostPort(host, cfg.Port())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	addrs, err := cfg.Resolver().LookupNetIP(ctx, "ip", name)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %w", ErrConnectFailed, name, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %w: %q", ErrConnectFailed, ErrNoAddress, name)
	}

	l := cfg.GetLogger()
	errs := make([]error, 0, len(addrs))
	for i, addr := range addrs {
		addrPort := netip.AddrPortFrom(addr.Unmap(), port)

		conn, err := dial(ctx, cfg, addrPort)
		if err != nil {
			l.Warn("spd3303x: failed to connect, trying next address",
				"host", name, "addr", addrPort.String(), "candidate", i+1, "candidates", len(addrs), "error", err)
			errs = append(errs, err)

			continue
		}

		s := newSession(conn, cfg)
		s.metrics.ConnectFallbackCount.Store(uint32(i)) //nolint:gosec // bounded by the resolver result
		l.Info("spd3303x: connected", "host", name, "addr", addrPort.String())

		return s, nil
	}

	return nil, fmt.Errorf("%w: %q: %w", ErrConnectFailed, host, errors.Join(errs...))
}

// ConnectByAddress connects to a single address.
func ConnectByAddress(ctx context.Context, addr netip.AddrPort, opts ...Option) (*Session, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	conn, err := dial(ctx, cfg, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	cfg.GetLogger().Info("spd3303x: connected", "addr", addr.String())

	return newSession(conn, cfg), nil
}

func dial(ctx context.Context, cfg *Config, addr netip.AddrPort) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout())
	defer cancel()

	return cfg.Dialer().DialContext(dialCtx, "tcp", addr.String())
}

// splitHostPort splits "name:port", falling back to defPort when host carries no port.
func splitHostPort(host string, defPort uint16) (string, uint16, error) {
	name, portStr, err := net.SplitHostPort(host)
	if err != nil {
		return host, defPort, nil //nolint:nilerr // a bare name has no port
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}

	return name, uint16(port), nil
}
