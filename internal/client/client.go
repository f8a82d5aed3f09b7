// Package client implements the connection manager: one authenticated
// FTP session shared by concurrent callers.
//
// Every operation acquires the session slot for its own duration, so
// operations on one Manager are totally ordered and never observe a
// half-updated handle.  Failures are returned as *errors.Error values
// with the originating cause attached; nothing is retried here.
package client

import (
	"bytes"
	"context"
	"io"
	"os"

	ftperr "ftpc/internal/errors"
	"ftpc/internal/metrics"
	"ftpc/internal/session"
	"ftpc/internal/transport"
	"ftpc/util"
)

// Config identifies the server and account.  It is copied into the
// Manager and never changed afterwards.
type Config struct {
	Host     string
	Port     uint16
	Username string
	Password string
	// InitialDir, when non-empty, is entered right after login.
	InitialDir string
}

// Addr returns "host:port".
func (c Config) Addr() string { return util.FormatAddr(c.Host, int(c.Port)) }

// Manager owns the configuration and the single session handle.
type Manager struct {
	config  Config
	dialer  transport.Dialer
	slot    *session.Slot
	logger  *util.Logger
	metrics *metrics.Collector
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger (default: quiet).
func WithLogger(l *util.Logger) Option {
	return func(m *Manager) { m.logger = l.Named("client") }
}

// WithMetrics records session and transfer statistics into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) { m.metrics = c }
}

// New returns a disconnected Manager.
func New(cfg Config, dialer transport.Dialer, opts ...Option) *Manager {
	m := &Manager{
		config: cfg,
		dialer: dialer,
		slot:   session.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = util.NewLogger(0).Named("client")
	}
	return m
}

// Config returns a copy of the manager's configuration.
func (m *Manager) Config() Config { return m.config }

// Connected reports whether a session is active.
func (m *Manager) Connected() bool { return m.slot.Active() }

// Connect opens, authenticates and positions a session.  It is a no-op
// when a session already exists.  On any failure the half-built
// connection is discarded and the manager stays disconnected.
func (m *Manager) Connect(ctx context.Context) error {
	return m.record(m.slot.Do(ctx, func(g *session.Guard) error {
		if g.Active() {
			m.logger.Debug("already connected to %s", m.config.Addr())
			return nil
		}

		addr := m.config.Addr()
		m.logger.Verbose("connecting to FTP server at %s", addr)

		conn, err := m.dialer.Dial(ctx, addr)
		if err != nil {
			return ftperr.Op(ftperr.KindConnect, "dial", "", ftperr.Wrap("dial", addr, err))
		}

		if err := conn.Login(m.config.Username, m.config.Password); err != nil {
			m.abandon(conn)
			return ftperr.Op(ftperr.KindAuth, "login", "", err)
		}

		if dir := m.config.InitialDir; dir != "" {
			if err := conn.ChangeDir(dir); err != nil {
				m.abandon(conn)
				return ftperr.Op(ftperr.KindDirectoryChange, "cwd", dir, err)
			}
		}

		// The caller has already been told the setup failed.
		if err := ctx.Err(); err != nil {
			m.abandon(conn)
			return err
		}

		g.Store(conn)
		m.metrics.SessionOpened()
		m.logger.Info("connected to %s as %s", addr, m.config.Username)
		return nil
	}))
}

// Disconnect ends the session.  The handle is discarded before QUIT is
// sent, so the manager is disconnected afterwards even when the
// exchange fails; that failure is still reported.
func (m *Manager) Disconnect(ctx context.Context) error {
	return m.record(m.slot.Do(ctx, func(g *session.Guard) error {
		conn := g.Take()
		if conn == nil {
			return nil
		}
		m.metrics.SessionClosed()

		if err := conn.Quit(); err != nil {
			return ftperr.Op(ftperr.KindDisconnect, "quit", "", err)
		}
		m.logger.Info("disconnected from %s", m.config.Addr())
		return nil
	}))
}

// Close is the teardown path: a best-effort Disconnect that is safe to
// call repeatedly.
func (m *Manager) Close() error {
	return m.Disconnect(context.Background())
}

// ListCurrentDirectory returns the names in the session's working
// directory exactly as the server sent them.
func (m *Manager) ListCurrentDirectory(ctx context.Context) ([]string, error) {
	var names []string
	err := m.withConn(ctx, func(c transport.Conn) error {
		var err error
		names, err = c.NameList("")
		if err != nil {
			return ftperr.Op(ftperr.KindList, "nlst", "", err)
		}
		m.metrics.Listed()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// ListDetails returns the working directory's LIST output as parsed
// entries (name, type, size, modification time).
func (m *Manager) ListDetails(ctx context.Context) ([]*transport.Entry, error) {
	var entries []*transport.Entry
	err := m.withConn(ctx, func(c transport.Conn) error {
		var err error
		entries, err = c.List("")
		if err != nil {
			return ftperr.Op(ftperr.KindList, "list", "", err)
		}
		m.metrics.Listed()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DownloadFile fetches remote fully into memory, then creates (or
// truncates) local and writes the content.
func (m *Manager) DownloadFile(ctx context.Context, remote, local string) error {
	return m.withConn(ctx, func(c transport.Conn) error {
		data, err := retrieve(c, remote)
		if err != nil {
			return ftperr.Op(ftperr.KindFetch, "retr", remote, err)
		}

		f, err := os.Create(local)
		if err != nil {
			return ftperr.Op(ftperr.KindLocalIO, "create", local, err)
		}
		_, err = f.Write(data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return ftperr.Op(ftperr.KindLocalIO, "write", local, err)
		}

		m.metrics.Downloaded(int64(len(data)))
		m.logger.Verbose("downloaded %s → %s (%d bytes)", remote, local, len(data))
		return nil
	})
}

// UploadFile reads local fully and stores it as remote, replacing any
// existing file of that name.
func (m *Manager) UploadFile(ctx context.Context, local, remote string) error {
	return m.withConn(ctx, func(c transport.Conn) error {
		f, err := os.Open(local)
		if err != nil {
			return ftperr.Op(ftperr.KindLocalIO, "open", local, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return ftperr.Op(ftperr.KindLocalIO, "read", local, err)
		}

		if err := c.Stor(remote, bytes.NewReader(data)); err != nil {
			return ftperr.Op(ftperr.KindStore, "stor", remote, err)
		}

		m.metrics.Uploaded(int64(len(data)))
		m.logger.Verbose("uploaded %s → %s (%d bytes)", local, remote, len(data))
		return nil
	})
}

// DeleteFile removes remote.
func (m *Manager) DeleteFile(ctx context.Context, remote string) error {
	return m.withConn(ctx, func(c transport.Conn) error {
		if err := c.Delete(remote); err != nil {
			return ftperr.Op(ftperr.KindRemove, "dele", remote, err)
		}
		m.metrics.Deleted()
		m.logger.Verbose("deleted %s", remote)
		return nil
	})
}

// ── helpers ──────────────────────────────────────────────────────────

// withConn runs fn on the live handle, or fails with NotConnected
// without touching the network.
func (m *Manager) withConn(ctx context.Context, fn func(c transport.Conn) error) error {
	return m.record(m.slot.Do(ctx, func(g *session.Guard) error {
		if !g.Active() {
			return ftperr.NotConnected()
		}
		return fn(g.Conn())
	}))
}

// abandon quits a connection that never made it into the slot.
func (m *Manager) abandon(conn transport.Conn) {
	if err := conn.Quit(); err != nil {
		m.logger.Debug("closing half-open session: %v", err)
	}
}

func (m *Manager) record(err error) error {
	if err != nil && ctxErr(err) == nil {
		m.metrics.RecordError(err.Error())
		m.logger.Verbose("%v", err)
	}
	return err
}

func ctxErr(err error) error {
	if ftperr.Is(err, context.Canceled) || ftperr.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func retrieve(c transport.Conn, remote string) ([]byte, error) {
	r, err := c.Retr(remote)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
