package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"time"

	"github.com/jlaffaye/ftp"
)

// DialFunc opens the raw TCP connections (control and passive data)
// for an FTP session.
type DialFunc func(network, address string) (net.Conn, error)

// FTPDialer opens plain FTP control connections.
type FTPDialer struct {
	Timeout     time.Duration
	DisableEPSV bool
	// DialFunc overrides the network dialer, e.g. to route through an
	// SSH tunnel.  Nil means a direct net.Dialer.
	DialFunc DialFunc
	// Trace receives the raw control-connection dialogue when non-nil.
	Trace io.Writer
}

// Dial connects to address and reads the server greeting.
func (d *FTPDialer) Dial(ctx context.Context, address string) (Conn, error) {
	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if d.Timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(d.Timeout))
	}
	if d.DisableEPSV {
		opts = append(opts, ftp.DialWithDisabledEPSV(true))
	}
	if d.DialFunc != nil {
		opts = append(opts, ftp.DialWithDialFunc(d.DialFunc))
	}
	if d.Trace != nil {
		opts = append(opts, ftp.DialWithDebugOutput(&redactWriter{w: d.Trace}))
	}

	c, err := ftp.Dial(address, opts...)
	if err != nil {
		return nil, err
	}
	return &serverConn{c}, nil
}

// Close is a no-op for direct dialers.
func (d *FTPDialer) Close() error { return nil }

// serverConn adapts *ftp.ServerConn to Conn.
type serverConn struct {
	*ftp.ServerConn
}

func (c *serverConn) Retr(path string) (io.ReadCloser, error) {
	r, err := c.ServerConn.Retr(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// redactWriter masks the argument of PASS commands in the trace.
type redactWriter struct {
	w io.Writer
}

var passCmd = []byte("PASS ")

func (r *redactWriter) Write(p []byte) (int, error) {
	if i := bytes.Index(p, passCmd); i >= 0 {
		end := bytes.IndexByte(p[i:], '\n')
		masked := make([]byte, 0, len(p))
		masked = append(masked, p[:i+len(passCmd)]...)
		masked = append(masked, "****"...)
		if end >= 0 {
			masked = append(masked, p[i+end:]...)
		}
		if _, err := r.w.Write(masked); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	return r.w.Write(p)
}
