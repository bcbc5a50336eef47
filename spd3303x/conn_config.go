package spd3303x

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/arloliu/go-spd3303x/logger"
)

const (
	// DefaultPort is the SCPI raw socket port of the SPD3303X.
	DefaultPort = 5025

	DefaultDialTimeout    = 3 * time.Second // per candidate address
	DefaultReadBufferSize = 256
)

const (
	MinReadBufferSize = 16
	MaxReadBufferSize = 64 * 1024
)

// Resolver looks up the addresses of a host name. *net.Resolver implements it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network string, host string) ([]netip.Addr, error)
}

// Dialer opens a stream connection. *net.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, network string, address string) (net.Conn, error)
}

// Config holds the configuration of a Session and of the connect functions.
type Config struct {
	port           uint16
	dialTimeout    time.Duration
	readBufferSize int

	resolver Resolver
	dialer   Dialer

	logger logger.Logger
}

// NewConfig creates a configuration with default values, then applies opts in order.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		port:           DefaultPort,
		dialTimeout:    DefaultDialTimeout,
		readBufferSize: DefaultReadBufferSize,
		resolver:       net.DefaultResolver,
		dialer:         &net.Dialer{},
		logger:         logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// Port returns the port used when a host name carries none.
func (cfg *Config) Port() uint16 { return cfg.port }

// DialTimeout returns the connect timeout applied to each candidate address.
func (cfg *Config) DialTimeout() time.Duration { return cfg.dialTimeout }

// ReadBufferSize returns the size of the buffered reader.
func (cfg *Config) ReadBufferSize() int { return cfg.readBufferSize }

// Resolver returns the host name resolver.
func (cfg *Config) Resolver() Resolver { return cfg.resolver }

// Dialer returns the stream dialer.
func (cfg *Config) Dialer() Dialer { return cfg.dialer }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithPort sets the port used when a host name carries none. Defaults to DefaultPort.
func WithPort(port uint16) Option {
	return optFunc(func(cfg *Config) error {
		if port == 0 {
			return errors.New("spd3303x: port must not be zero")
		}
		cfg.port = port

		return nil
	})
}

// WithDialTimeout sets the connect timeout for each candidate address.
func WithDialTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("spd3303x: dial timeout must be positive")
		}
		cfg.dialTimeout = d

		return nil
	})
}

// WithReadBufferSize sets the size of the buffered reader. Must be in [16, 65536].
func WithReadBufferSize(size int) Option {
	return optFunc(func(cfg *Config) error {
		if size < MinReadBufferSize || size > MaxReadBufferSize {
			return fmt.Errorf("spd3303x: read buffer size %d out of range [%d, %d]",
				size, MinReadBufferSize, MaxReadBufferSize)
		}
		cfg.readBufferSize = size

		return nil
	})
}

// WithResolver replaces the host name resolver. Defaults to net.DefaultResolver.
func WithResolver(r Resolver) Option {
	return optFunc(func(cfg *Config) error {
		if r == nil {
			return errors.New("spd3303x: resolver must not be nil")
		}
		cfg.resolver = r

		return nil
	})
}

// WithDialer replaces the stream dialer. Defaults to a zero net.Dialer.
func WithDialer(d Dialer) Option {
	return optFunc(func(cfg *Config) error {
		if d == nil {
			return errors.New("spd3303x: dialer must not be nil")
		}
		cfg.dialer = d

		return nil
	})
}

// WithLogger sets the logger for the session.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("spd3303x: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
