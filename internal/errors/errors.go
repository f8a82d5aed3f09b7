// Package errors provides domain-specific error types for ftpc.
//
// Every failure surfaced by the connection manager is an [*Error] that
// carries its [Kind], the operation and path involved, and the original
// cause.  errors.Is matches both the kind sentinel (ErrAuthFailed, …)
// and anything in the cause chain.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNotConnected     = errors.New("not connected to FTP server")
	ErrConnectFailed    = errors.New("failed to connect to FTP server")
	ErrAuthFailed       = errors.New("failed to login to FTP server")
	ErrDirectoryChange  = errors.New("failed to change directory")
	ErrListFailed       = errors.New("failed to list directory")
	ErrFetchFailed      = errors.New("failed to download file")
	ErrStoreFailed      = errors.New("failed to upload file")
	ErrRemoveFailed     = errors.New("failed to delete remote file")
	ErrLocalIO          = errors.New("local file error")
	ErrDisconnectFailed = errors.New("failed to disconnect from FTP server")

	ErrTunnelClosed    = errors.New("tunnel is closed")
	ErrHostKeyMismatch = errors.New("host key mismatch")
)

// Kind classifies an [Error].
type Kind int

const (
	KindNotConnected Kind = iota + 1
	KindConnect
	KindAuth
	KindDirectoryChange
	KindList
	KindFetch
	KindStore
	KindRemove
	KindLocalIO
	KindDisconnect
)

var kindSentinels = map[Kind]error{
	KindNotConnected:    ErrNotConnected,
	KindConnect:         ErrConnectFailed,
	KindAuth:            ErrAuthFailed,
	KindDirectoryChange: ErrDirectoryChange,
	KindList:            ErrListFailed,
	KindFetch:           ErrFetchFailed,
	KindStore:           ErrStoreFailed,
	KindRemove:          ErrRemoveFailed,
	KindLocalIO:         ErrLocalIO,
	KindDisconnect:      ErrDisconnectFailed,
}

// Sentinel returns the package-level error value for k.
func (k Kind) Sentinel() error { return kindSentinels[k] }

func (k Kind) String() string {
	switch k {
	case KindNotConnected:
		return "not-connected"
	case KindConnect:
		return "connect"
	case KindAuth:
		return "auth"
	case KindDirectoryChange:
		return "chdir"
	case KindList:
		return "list"
	case KindFetch:
		return "fetch"
	case KindStore:
		return "store"
	case KindRemove:
		return "remove"
	case KindLocalIO:
		return "local-io"
	case KindDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// ── Structured error types ───────────────────────────────────────────

// Error is a failed manager operation.
type Error struct {
	Kind Kind
	Op   string // finer-grained step: "dial", "create", "write", "read", …
	Path string // remote identifier or local path, if any
	Err  error  // underlying cause, nil for NotConnected
}

func (e *Error) Error() string {
	s := e.Kind.Sentinel()
	if s == nil {
		return e.unknownKind()
	}
	msg := s.Error()
	if e.Op != "" && e.Kind == KindLocalIO {
		msg += " (" + e.Op + ")"
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// unknownKind formats an Error built without a valid Kind.
func (e *Error) unknownKind() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg += " (" + e.Op + ")"
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // operation: "dial", "read", "write"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "dial"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// NotConnected returns the error for an operation attempted without a
// live session.
func NotConnected() *Error { return &Error{Kind: KindNotConnected} }

// Op creates an Error of the given kind.
func Op(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsRetryable reports whether err is worth retrying.  Credential and
// directory rejections are never retryable; dial failures are unless
// the network layer says otherwise.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindAuth, KindDirectoryChange, KindNotConnected, KindLocalIO:
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	if KindOf(err) == KindConnect {
		return true
	}
	return classifyRetryable(err)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() || opErr.Op == "dial" //nolint:staticcheck
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
