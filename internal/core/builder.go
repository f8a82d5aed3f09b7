// Package core assembles the runtime object graph from a validated
// configuration.
package core

import (
	"context"
	"fmt"
	"time"

	"ftpc/config"
	"ftpc/internal/client"
	ftperr "ftpc/internal/errors"
	"ftpc/internal/extension"
	"ftpc/internal/metrics"
	"ftpc/internal/retry"
	"ftpc/internal/transport"
	"ftpc/tunnel"
	"ftpc/util"
)

// Session is everything a front end needs to talk to one configured
// server.
type Session struct {
	Manager *client.Manager
	FTP     *extension.FTP
	Dialer  transport.Dialer
	Metrics *metrics.Collector
	Logger  *util.Logger
}

// Option adjusts Build.
type Option func(*options)

type options struct {
	dialer transport.Dialer
}

// WithDialer replaces the dialer Build would derive from the config.
func WithDialer(d transport.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// Build constructs the dialer, connection manager and FTP extension for
// cfg.  Nothing touches the network until a command runs.
func Build(cfg *config.Config, logger *util.Logger, opts ...Option) (*Session, error) {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range 1-65535", cfg.Server.Port)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	dialer := o.dialer
	if dialer == nil {
		var err error
		if dialer, err = buildDialer(cfg, logger); err != nil {
			return nil, err
		}
	}

	stats := metrics.New()
	manager := client.New(client.Config{
		Host:       cfg.Server.Host,
		Port:       uint16(cfg.Server.Port),
		Username:   cfg.Server.User,
		Password:   cfg.Server.Password,
		InitialDir: cfg.Server.Dir,
	}, dialer, client.WithLogger(logger), client.WithMetrics(stats))

	return &Session{
		Manager: manager,
		FTP:     extension.NewFTP(manager, extension.WithBackoff(buildBackoff(cfg, logger)), extension.WithStats(stats)),
		Dialer:  dialer,
		Metrics: stats,
		Logger:  logger,
	}, nil
}

// Activate registers the session's commands on c.
func (s *Session) Activate(ctx context.Context, c *extension.Context) error {
	return s.FTP.Activate(ctx, c)
}

// Close ends the FTP session and releases the dialer (SSH tunnel).
func (s *Session) Close() error {
	return ftperr.Join(s.Manager.Close(), s.Dialer.Close())
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) (transport.Dialer, error) {
	fd := &transport.FTPDialer{
		Timeout:     cfg.Timeout,
		DisableEPSV: cfg.DisableEPSV,
	}
	if logger.Level() >= util.LogDebug {
		fd.Trace = logger.Named("wire").Writer()
	}

	if !cfg.TunnelEnabled() {
		return fd, nil
	}

	user, host, port, err := config.ParseTunnelSpec(cfg.Tunnel.Spec)
	if err != nil {
		return nil, err
	}
	return transport.NewSSHDialer(&tunnel.SSHConfig{
		User:          user,
		Host:          host,
		Port:          port,
		KeyPath:       cfg.Tunnel.Key,
		PromptPass:    cfg.Tunnel.Password,
		UseAgent:      cfg.Tunnel.Agent,
		StrictHostKey: cfg.Tunnel.StrictHostKey,
		KnownHosts:    cfg.Tunnel.KnownHosts,
		ConnTimeout:   cfg.Timeout,
	}, fd, logger), nil
}

// buildBackoff turns --retries into the connect policy.
func buildBackoff(cfg *config.Config, logger *util.Logger) *retry.Backoff {
	b := retry.DefaultBackoff()
	b.MaxAttempts = cfg.Retries + 1
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("connect attempt %d failed: %v (retrying in %s)", attempt, err, wait.Round(time.Millisecond))
	}
	return b
}
