package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"ftpc/tunnel"
	"ftpc/util"
)

// SSHDialer routes the FTP control and data connections through an SSH
// jump host.  The tunnel is connected lazily on the first Dial call and
// torn down on Close.
type SSHDialer struct {
	FTP *FTPDialer

	tunnel    tunnel.Tunnel
	config    *tunnel.SSHConfig
	logger    *util.Logger
	mu        sync.Mutex
	connected bool
}

// NewSSHDialer creates a dialer that forwards FTP through an SSH
// tunnel.  ftpDialer supplies timeouts and protocol options; its
// DialFunc is replaced by the tunnel.
func NewSSHDialer(cfg *tunnel.SSHConfig, ftpDialer *FTPDialer, logger *util.Logger) *SSHDialer {
	if ftpDialer == nil {
		ftpDialer = &FTPDialer{}
	}
	return &SSHDialer{
		FTP:    ftpDialer,
		tunnel: tunnel.NewSSHTunnel(cfg, logger),
		config: cfg,
		logger: logger,
	}
}

// connect establishes the SSH tunnel if it is not already up.  A tunnel
// that died since the last call is re-established.
func (d *SSHDialer) connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected && d.tunnel.IsAlive() {
		return nil
	}

	d.logger.Verbose("establishing SSH tunnel to %s@%s:%d",
		d.config.User, d.config.Host, d.config.Port)

	if err := d.tunnel.Connect(ctx); err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}

	d.connected = true
	d.logger.Verbose("SSH tunnel established")
	return nil
}

// Dial connects to the FTP server at address through the SSH tunnel.
func (d *SSHDialer) Dial(ctx context.Context, address string) (Conn, error) {
	if err := d.connect(ctx); err != nil {
		return nil, err
	}

	fd := *d.FTP
	fd.DialFunc = func(network, addr string) (net.Conn, error) {
		// Passive data connections are opened long after ctx may have
		// ended, so they are not bound to it.
		return d.tunnel.Dial(context.Background(), network, addr)
	}
	return fd.Dial(ctx, address)
}

// Close tears down the underlying SSH tunnel.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		d.connected = false
		return d.tunnel.Close()
	}
	return nil
}
