package extension

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jlaffaye/ftp"

	"ftpc/internal/client"
	ftperr "ftpc/internal/errors"
	"ftpc/internal/metrics"
	"ftpc/internal/retry"
	"ftpc/internal/transport"
)

// FTP exposes a client.Manager as ftp.* commands.
type FTP struct {
	manager *client.Manager
	backoff *retry.Backoff
	metrics *metrics.Collector
}

var _ Extension = (*FTP)(nil)

// FTPOption configures the FTP extension.
type FTPOption func(*FTP)

// WithBackoff sets the connect retry policy (default: a single attempt).
func WithBackoff(b *retry.Backoff) FTPOption {
	return func(f *FTP) { f.backoff = b }
}

// WithStats lets ftp.status print the collector's snapshot.
func WithStats(c *metrics.Collector) FTPOption {
	return func(f *FTP) { f.metrics = c }
}

// NewFTP wraps m.
func NewFTP(m *client.Manager, opts ...FTPOption) *FTP {
	f := &FTP{manager: m, backoff: &retry.Backoff{MaxAttempts: 1}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Activate registers the ftp.* commands.
func (f *FTP) Activate(_ context.Context, c *Context) error {
	cmds := []Command{
		{"ftp.connect", "Connect to the configured FTP server", f.connect(c)},
		{"ftp.disconnect", "Disconnect from the FTP server", f.disconnect(c)},
		{"ftp.list", "List the working directory ([-l] for details)", f.list(c)},
		{"ftp.download", "Download REMOTE to LOCAL", f.download(c)},
		{"ftp.upload", "Upload LOCAL to REMOTE", f.upload(c)},
		{"ftp.delete", "Delete REMOTE", f.remove(c)},
		{"ftp.status", "Show connection state and statistics", f.status(c)},
	}
	for _, cmd := range cmds {
		if err := c.RegisterCommand(cmd.Name, cmd.Description, cmd.Handler); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate ends any live session.
func (f *FTP) Deactivate(_ context.Context, c *Context) error {
	if err := f.manager.Close(); err != nil {
		c.Logger().Warn("closing FTP session: %v", err)
		return err
	}
	return nil
}

// Connect runs Manager.Connect under the retry policy.  Only failures
// classified as retryable are attempted again; a rejected login or a
// missing initial directory stops immediately.
func (f *FTP) Connect(ctx context.Context) error {
	return f.backoff.Do(ctx, func(int) error {
		err := f.manager.Connect(ctx)
		if err != nil && !ftperr.IsRetryable(err) {
			return retry.Permanent(err)
		}
		return err
	})
}

func (f *FTP) connect(c *Context) Handler {
	return func(ctx context.Context, args []string) error {
		if len(args) != 0 {
			return usage("ftp.connect")
		}
		if err := f.Connect(ctx); err != nil {
			return err
		}
		c.printf("Connected to %s\n", f.manager.Config().Addr())
		return nil
	}
}

func (f *FTP) disconnect(c *Context) Handler {
	return func(ctx context.Context, args []string) error {
		if len(args) != 0 {
			return usage("ftp.disconnect")
		}
		if err := f.manager.Disconnect(ctx); err != nil {
			return err
		}
		c.printf("Disconnected\n")
		return nil
	}
}

func (f *FTP) list(c *Context) Handler {
	return func(ctx context.Context, args []string) error {
		switch {
		case len(args) == 0:
			names, err := f.manager.ListCurrentDirectory(ctx)
			if err != nil {
				return err
			}
			for _, n := range names {
				c.printf("%s\n", n)
			}
			return nil
		case len(args) == 1 && args[0] == "-l":
			entries, err := f.manager.ListDetails(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.Out(), 0, 0, 2, ' ', tabwriter.AlignRight)
			for _, e := range entries {
				fmt.Fprintf(tw, "%c\t%d\t %s\t %s\t\n", entryMode(e), e.Size, e.Time.Format(time.DateTime), e.Name)
			}
			return tw.Flush()
		default:
			return usage("ftp.list [-l]")
		}
	}
}

func (f *FTP) download(c *Context) Handler {
	return func(ctx context.Context, args []string) error {
		if len(args) != 2 {
			return usage("ftp.download REMOTE LOCAL")
		}
		if err := f.manager.DownloadFile(ctx, args[0], args[1]); err != nil {
			return err
		}
		c.printf("%s -> %s\n", args[0], args[1])
		return nil
	}
}

func (f *FTP) upload(c *Context) Handler {
	return func(ctx context.Context, args []string) error {
		if len(args) != 2 {
			return usage("ftp.upload LOCAL REMOTE")
		}
		if err := f.manager.UploadFile(ctx, args[0], args[1]); err != nil {
			return err
		}
		c.printf("%s -> %s\n", args[0], args[1])
		return nil
	}
}

func (f *FTP) remove(c *Context) Handler {
	return func(ctx context.Context, args []string) error {
		if len(args) != 1 {
			return usage("ftp.delete REMOTE")
		}
		if err := f.manager.DeleteFile(ctx, args[0]); err != nil {
			return err
		}
		c.printf("Deleted %s\n", args[0])
		return nil
	}
}

func (f *FTP) status(c *Context) Handler {
	return func(_ context.Context, _ []string) error {
		state := "disconnected"
		if f.manager.Connected() {
			state = "connected"
		}
		cfg := f.manager.Config()
		c.printf("%s@%s: %s\n", cfg.Username, cfg.Addr(), state)
		if f.metrics != nil {
			c.printf("%s\n", f.metrics.JSON())
		}
		return nil
	}
}

func entryMode(e *transport.Entry) byte {
	switch e.Type {
	case ftp.EntryTypeFolder:
		return 'd'
	case ftp.EntryTypeLink:
		return 'l'
	default:
		return '-'
	}
}
