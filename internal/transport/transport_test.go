package transport

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"ftpc/tunnel"
	"ftpc/util"
)

// scriptedServer answers just enough of the control protocol for a
// login and QUIT.  Unknown commands get 200.
func scriptedServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	// Cleanups run last-in first-out: close the listener, then wait.
	var wg sync.WaitGroup
	t.Cleanup(wg.Wait)
	t.Cleanup(func() { ln.Close() })
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		w := bufio.NewWriter(conn)
		reply := func(s string) {
			w.WriteString(s + "\r\n") //nolint:errcheck
			w.Flush()                 //nolint:errcheck
		}
		reply("220 test server ready")

		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			verb, _, _ := strings.Cut(strings.TrimSpace(line), " ")
			switch strings.ToUpper(verb) {
			case "FEAT":
				reply("502 not implemented")
			case "USER":
				reply("331 password required")
			case "PASS":
				reply("230 logged in")
			case "QUIT":
				reply("221 bye")
				return
			default:
				reply("200 ok")
			}
		}
	}()
	return ln.Addr().String()
}

func TestFTPDialer_LoginAndQuit(t *testing.T) {
	addr := scriptedServer(t)
	var trace bytes.Buffer
	d := &FTPDialer{Timeout: 2 * time.Second, Trace: &trace}

	conn, err := d.Dial(context.Background(), addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := conn.Login("demo", "s3cret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := conn.Quit(); err != nil {
		t.Fatalf("quit: %v", err)
	}

	got := trace.String()
	if !strings.Contains(got, "USER demo") {
		t.Errorf("trace should show USER, got %q", got)
	}
	if strings.Contains(got, "s3cret") {
		t.Errorf("trace leaked the password: %q", got)
	}
	if !strings.Contains(got, "PASS ****") {
		t.Errorf("trace should show masked PASS, got %q", got)
	}
}

func TestFTPDialer_Refused(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	d := &FTPDialer{Timeout: 2 * time.Second}
	if _, err := d.Dial(context.Background(), util.FormatAddr("127.0.0.1", port)); err == nil {
		t.Fatal("expected error dialing a closed port")
	}
}

func TestFTPDialer_ContextCancel(t *testing.T) {
	d := &FTPDialer{Timeout: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Dial(ctx, "127.0.0.1:1"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestFTPDialer_Close(t *testing.T) {
	d := &FTPDialer{}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRedactWriter(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"USER demo\r\n", "USER demo\r\n"},
		{"PASS hunter2\r\n", "PASS ****\n"},
		{"> PASS a b c\n", "> PASS ****\n"},
		{"PASS nonewline", "PASS ****"},
		{"230 logged in\r\n", "230 logged in\r\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		w := &redactWriter{w: &buf}
		n, err := w.Write([]byte(tt.in))
		if err != nil {
			t.Fatalf("Write(%q): %v", tt.in, err)
		}
		if n != len(tt.in) {
			t.Errorf("Write(%q) n = %d, want %d", tt.in, n, len(tt.in))
		}
		if buf.String() != tt.want {
			t.Errorf("Write(%q) wrote %q, want %q", tt.in, buf.String(), tt.want)
		}
	}
}

func TestSSHDialer_CloseUnused(t *testing.T) {
	d := NewSSHDialer(&tunnel.SSHConfig{User: "u", Host: "127.0.0.1"}, nil, util.NewLogger(0))
	if d.FTP == nil {
		t.Fatal("nil FTP dialer should be replaced with a default")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSSHDialer_TunnelFailure(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	d := NewSSHDialer(&tunnel.SSHConfig{
		User:        "u",
		Host:        "127.0.0.1",
		Port:        port,
		Password:    "p",
		ConnTimeout: 2 * time.Second,
	}, &FTPDialer{Timeout: 2 * time.Second}, util.NewLogger(0))
	defer d.Close()

	if _, err := d.Dial(context.Background(), "ftp.internal:21"); err == nil {
		t.Fatal("expected error when the jump host is unreachable")
	}
}
