// Package daemon implements the birdlgd proxy lifecycle.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"

	"github.com/psaab/birdlg/pkg/api"
	"github.com/psaab/birdlg/pkg/bird"
	"github.com/psaab/birdlg/pkg/config"
	"github.com/psaab/birdlg/pkg/logging"
)

// Options configures the daemon.
type Options struct {
	ConfigFile string
	Listen     string // overrides the configured listen address
	Debug      bool
}

// Daemon is the looking-glass proxy daemon.
type Daemon struct {
	opts   Options
	cfg    *config.Config
	logger *logging.SyslogHandler
	bird   *bird.Manager
}

// New creates a new Daemon.
func New(opts Options) *Daemon {
	if opts.ConfigFile == "" {
		opts.ConfigFile = config.DefaultPath
	}
	return &Daemon{opts: opts}
}

func (d *Daemon) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(d.opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if d.opts.Listen != "" {
		cfg.Listen = d.opts.Listen
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Run starts the daemon and blocks until shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	cfg, err := d.loadConfig()
	if err != nil {
		return err
	}
	d.cfg = cfg

	d.logger, err = logging.Setup(cfg.Log, os.Stderr, d.opts.Debug)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer func() { d.logger.Close() }()

	slog.Info("starting birdlg daemon",
		"config", d.opts.ConfigFile,
		"listen", cfg.Listen,
		"pid", os.Getpid())

	d.bird = bird.New(cfg.Bird, cfg.Traceroute)
	d.probe(ctx)

	srv := api.NewServer(api.Config{
		Addr:     cfg.Listen,
		Backend:  d.bird,
		QueryLog: logging.NewQueryLog(cfg.QueryLogSize),
		Timeout:  cfg.Timeout,
		Metrics:  cfg.Metrics,
	})

	// Handle signals for clean shutdown
	ctx, stop := signal.NotifyContext(ctx, unix.SIGTERM, unix.SIGINT)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, unix.SIGHUP)
	defer signal.Stop(hup)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	for {
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("HTTP API: %w", err)
			}
			slog.Info("shutdown complete")
			return nil
		case <-hup:
			d.reloadLogging()
		}
	}
}

// probe checks that BIRD answers before serving. Failure is not fatal;
// the daemon keeps serving and reports errors per query.
func (d *Daemon) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := d.bird.Protocols(ctx)
	if err != nil {
		slog.Warn("BIRD not reachable", "birdc", d.cfg.Bird.Birdc, "err", err)
		return
	}
	slog.Info("BIRD reachable", "protocols", len(rows))
}

// reloadLogging re-reads the configuration and applies its log section.
// Other settings need a restart.
func (d *Daemon) reloadLogging() {
	cfg, err := d.loadConfig()
	if err != nil {
		slog.Warn("reload failed, keeping current configuration", "err", err)
		return
	}
	h, err := logging.Setup(cfg.Log, os.Stderr, d.opts.Debug)
	if err != nil {
		slog.Warn("reload logging failed", "err", err)
		return
	}
	d.logger.Close()
	d.logger = h
	d.cfg.Log = cfg.Log
	slog.Info("logging configuration reloaded", "level", cfg.Log.Level, "syslog", len(cfg.Log.Syslog))
}
