// Package transport provides the FTP protocol surface used by the
// connection manager and the dialers that open it.  Dialers handle the
// "how" of reaching the server (direct TCP or through an SSH jump
// host) independent of what the manager does over the session.
package transport

import (
	"context"
	"io"

	"github.com/jlaffaye/ftp"
)

// Entry is one parsed LIST line.
type Entry = ftp.Entry

// Conn is a live FTP control connection.  It is not safe for
// concurrent use; callers serialize access.
type Conn interface {
	Login(user, password string) error
	ChangeDir(path string) error
	// NameList returns NLST output in server order.  An empty path
	// lists the current working directory.
	NameList(path string) ([]string, error)
	List(path string) ([]*Entry, error)
	// Retr opens a download.  The reader must be closed before the
	// next command is issued.
	Retr(path string) (io.ReadCloser, error)
	Stor(path string, r io.Reader) error
	Delete(path string) error
	Quit() error
}

// Dialer opens FTP sessions.  The returned Conn has completed the
// server greeting but is not yet logged in.
type Dialer interface {
	// Dial connects to address ("host:port").
	Dial(ctx context.Context, address string) (Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}
