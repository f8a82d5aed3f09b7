// Package fakeftp provides an in-memory FTP server for tests.  It
// satisfies transport.Dialer, and its connections satisfy
// transport.Conn with the reply codes a real server would use.
package fakeftp

import (
	"bytes"
	"context"
	"io"
	"net/textproto"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jlaffaye/ftp"

	"ftpc/internal/transport"
)

// Server is an in-memory FTP server reachable through its Dial method.
// It counts network activity so tests can assert that guarded
// operations never reach it.  Users maps user names to passwords and
// Dirs holds the directories CWD accepts.  The exported error and delay
// fields must be set before the server is used concurrently.
type Server struct {
	mu    sync.Mutex
	Users map[string]string
	Dirs  map[string]bool
	files map[string][]byte
	order []string

	DialErr error
	ListErr error // NLST and LIST
	StorErr error
	QuitErr error
	Delay   time.Duration

	Dials    atomic.Int32
	Calls    atomic.Int32
	Inflight atomic.Int32
	Peak     atomic.Int32
}

// NewServer knows the users anonymous and demo (password "password")
// and the directories / and /pub.
func NewServer() *Server {
	return &Server{
		Users: map[string]string{"anonymous": "anonymous@", "demo": "password"},
		Dirs:  map[string]bool{"/": true, "/pub": true},
		files: map[string][]byte{},
	}
}

// Put stores a file, keeping first-insertion order for listings.
func (s *Server) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[name]; !ok {
		s.order = append(s.order, name)
	}
	s.files[name] = append([]byte(nil), data...)
}

// Get returns a stored file.
func (s *Server) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.files[name]
	return d, ok
}

// Dial opens a session in the root directory.
func (s *Server) Dial(ctx context.Context, _ string) (transport.Conn, error) {
	s.Dials.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.DialErr != nil {
		return nil, s.DialErr
	}
	return &fakeConn{s: s, cwd: "/"}, nil
}

// Close is a no-op; sessions end with Quit.
func (s *Server) Close() error { return nil }

var (
	_ transport.Dialer = (*Server)(nil)
	_ transport.Conn   = (*fakeConn)(nil)
)

// enter records one network round trip and tracks how many overlap.
func (s *Server) enter() func() {
	s.Calls.Add(1)
	n := s.Inflight.Add(1)
	for {
		p := s.Peak.Load()
		if n <= p || s.Peak.CompareAndSwap(p, n) {
			break
		}
	}
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	return func() { s.Inflight.Add(-1) }
}

type fakeConn struct {
	s   *Server
	cwd string
}

func ftpError(code int, msg string) error {
	return &textproto.Error{Code: code, Msg: msg}
}

func (c *fakeConn) Login(user, password string) error {
	defer c.s.enter()()
	if pw, ok := c.s.Users[user]; !ok || pw != password {
		return ftpError(ftp.StatusNotLoggedIn, "Login incorrect.")
	}
	return nil
}

func (c *fakeConn) ChangeDir(path string) error {
	defer c.s.enter()()
	if !c.s.Dirs[path] {
		return ftpError(ftp.StatusFileUnavailable, "Failed to change directory.")
	}
	c.cwd = path
	return nil
}

func (c *fakeConn) NameList(string) ([]string, error) {
	defer c.s.enter()()
	if c.s.ListErr != nil {
		return nil, c.s.ListErr
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return append([]string(nil), c.s.order...), nil
}

func (c *fakeConn) List(string) ([]*transport.Entry, error) {
	defer c.s.enter()()
	if c.s.ListErr != nil {
		return nil, c.s.ListErr
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]*transport.Entry, 0, len(c.s.order))
	for _, name := range c.s.order {
		out = append(out, &transport.Entry{
			Name: name,
			Type: ftp.EntryTypeFile,
			Size: uint64(len(c.s.files[name])),
		})
	}
	return out, nil
}

func (c *fakeConn) Retr(path string) (io.ReadCloser, error) {
	defer c.s.enter()()
	data, ok := c.s.Get(path)
	if !ok {
		return nil, ftpError(ftp.StatusFileUnavailable, "Failed to open file.")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *fakeConn) Stor(path string, r io.Reader) error {
	defer c.s.enter()()
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if c.s.StorErr != nil {
		return c.s.StorErr
	}
	c.s.Put(path, data)
	return nil
}

func (c *fakeConn) Delete(path string) error {
	defer c.s.enter()()
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.files[path]; !ok {
		return ftpError(ftp.StatusFileUnavailable, "Delete operation failed.")
	}
	delete(c.s.files, path)
	for i, n := range c.s.order {
		if n == path {
			c.s.order = append(c.s.order[:i], c.s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *fakeConn) Quit() error {
	defer c.s.enter()()
	return c.s.QuitErr
}
