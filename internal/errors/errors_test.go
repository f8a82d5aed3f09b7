package errors

import (
	"fmt"
	"io"
	"net"
	"testing"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "not connected",
			err:  NotConnected(),
			want: "not connected to FTP server",
		},
		{
			name: "auth with cause",
			err:  Op(KindAuth, "login", "", fmt.Errorf("530 Login incorrect.")),
			want: "failed to login to FTP server: 530 Login incorrect.",
		},
		{
			name: "fetch with path",
			err:  Op(KindFetch, "retr", "README.md", fmt.Errorf("550 No such file")),
			want: "failed to download file README.md: 550 No such file",
		},
		{
			name: "local io shows step",
			err:  Op(KindLocalIO, "create", "/tmp/x", fmt.Errorf("permission denied")),
			want: "local file error (create) /tmp/x: permission denied",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_IsKindAndCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := fmt.Errorf("ftp.list: %w", Op(KindList, "nlst", "", cause))

	if !Is(err, ErrListFailed) {
		t.Error("should match its kind sentinel")
	}
	if Is(err, ErrFetchFailed) {
		t.Error("should not match another kind")
	}
	if !Is(err, cause) {
		t.Error("should unwrap to the cause")
	}
	if KindOf(err) != KindList {
		t.Errorf("KindOf = %v, want %v", KindOf(err), KindList)
	}
}

func TestKind_Sentinels(t *testing.T) {
	for k := KindNotConnected; k <= KindDisconnect; k++ {
		if k.Sentinel() == nil {
			t.Errorf("kind %v has no sentinel", k)
		}
		if k.String() == "unknown" {
			t.Errorf("kind %d has no name", int(k))
		}
	}
	if KindOf(io.EOF) != 0 {
		t.Error("plain error should have no kind")
	}
}

func TestError_UnknownKind(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Op: "x"}, "unknown error (x)"},
		{&Error{Kind: Kind(99), Path: "a.txt", Err: io.EOF}, "unknown error a.txt: EOF"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
		if Is(tt.err, ErrLocalIO) {
			t.Errorf("%q should match no sentinel", tt.want)
		}
	}
}

func TestNetworkError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  NetworkError
		want string
	}{
		{
			name: "retryable",
			err:  NetworkError{Op: "dial", Addr: "ftp.example.com:21", Err: io.EOF, Retryable: true},
			want: "dial ftp.example.com:21: EOF (retryable)",
		},
		{
			name: "non-retryable",
			err:  NetworkError{Op: "read", Addr: ":21", Err: fmt.Errorf("bad greeting")},
			want: "read :21: bad greeting",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSSHError_Format(t *testing.T) {
	err := WrapSSH("handshake", "bastion.example.com", 22, fmt.Errorf("connection refused"))
	want := "ssh handshake bastion.example.com:22: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !Is(err, err.Err) {
		t.Error("should unwrap to inner error")
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "port",
				Value:   99999,
				Message: "out of range 1-65535",
				Hint:    "the standard FTP port is 21",
			},
			want: "config: --port=99999: out of range 1-65535\n  hint: the standard FTP port is 21",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "host",
				Message: "required",
			},
			want: "config: --host: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: fmt.Errorf("connection refused")}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"auth", Op(KindAuth, "login", "", fmt.Errorf("530")), false},
		{"chdir", Op(KindDirectoryChange, "cwd", "/x", fmt.Errorf("550")), false},
		{"connect refused", Op(KindConnect, "dial", "h:21", Wrap("dial", "h:21", refused)), true},
		{"connect bare", Op(KindConnect, "dial", "h:21", io.EOF), true},
		{"non-retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF}, false},
		{"plain error", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrNotConnected, ErrConnectFailed, ErrAuthFailed, ErrDirectoryChange,
		ErrListFailed, ErrFetchFailed, ErrStoreFailed, ErrRemoveFailed,
		ErrLocalIO, ErrDisconnectFailed, ErrTunnelClosed, ErrHostKeyMismatch,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
