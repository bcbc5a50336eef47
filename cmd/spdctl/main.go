// Command spdctl drives a Siglent SPD3303X through a short bring-up sequence: it connects,
// verifies the serial number, programs limits, reads measurements and toggles CH3 and CH1.
//
// The supply address and the expected serial number come from the TEST_SPD3303X and
// TEST_SPD3303X_SERIAL environment variables or from the file given by -config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/go-spd3303x/command"
	"github.com/arloliu/go-spd3303x/internal/config"
	"github.com/arloliu/go-spd3303x/logger"
	"github.com/arloliu/go-spd3303x/spd3303x"
)

func main() {
	configPath := flag.String("config", "", "optional YAML or TOML configuration file")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.NewSlog(level, false)
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("spdctl failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	session, err := spd3303x.ConnectByName(ctx, cfg.Host,
		spd3303x.WithDialTimeout(cfg.DialTimeout),
		spd3303x.WithLogger(log),
	)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           newExporter(session.GetMetrics()).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer func() { _ = srv.Close() }()
		log.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	reqCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, cfg.RequestTimeout)
	}

	vctx, cancel := reqCtx()
	err = session.VerifyIdentity(vctx, cfg.Serial)
	cancel()
	if err != nil {
		_ = session.Close()
		return err
	}

	ch1, ch2, ch3, err := session.IntoChannels()
	if err != nil {
		_ = session.Close()
		return err
	}
	defer ch1.Supply().Close()

	for _, ch := range []*spd3303x.ChannelControl{ch1, ch2} {
		if err := setLimits(ctx, cfg, ch, command.ReadingFromFloat(3.3), command.ReadingFromFloat(0.1)); err != nil {
			return err
		}
		if err := logMeasurements(ctx, cfg, log, ch); err != nil {
			return err
		}
	}

	if err := pulse(ctx, cfg, log, "CH3", ch3.SetOutput); err != nil {
		return err
	}

	return pulse(ctx, cfg, log, "CH1", func(ctx context.Context, state command.State) error {
		if err := ch1.SetOutput(ctx, state); err != nil {
			return err
		}
		if state == command.StateOn {
			return logMeasurements(ctx, cfg, log, ch1)
		}

		return nil
	})
}

func setLimits(ctx context.Context, cfg *config.Config, ch *spd3303x.ChannelControl, volts, amps command.Reading) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	if err := ch.SetLimit(ctx, command.LimitVoltage, volts); err != nil {
		return err
	}

	return ch.SetLimit(ctx, command.LimitCurrent, amps)
}

func logMeasurements(ctx context.Context, cfg *config.Config, log logger.Logger, ch *spd3303x.ChannelControl) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	kv := []any{"channel", ch.Channel()}
	for _, q := range []command.Quantity{command.Voltage, command.Current, command.Power} {
		v, err := ch.Measure(ctx, q)
		if err != nil {
			return err
		}
		kv = append(kv, q.Unit(), v.String())
	}
	log.Info("measured", kv...)

	return nil
}

// pulse switches an output on for one second.
func pulse(ctx context.Context, cfg *config.Config, log logger.Logger, name string,
	set func(context.Context, command.State) error,
) error {
	for _, state := range []command.State{command.StateOn, command.StateOff} {
		sctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		err := set(sctx, state)
		cancel()
		if err != nil {
			return err
		}
		log.Info("output switched", "output", name, "state", state)

		if state == command.StateOn {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}

	return nil
}
