// Package config defines the runtime configuration for ftpc and provides
// helpers for parsing server and tunnel specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ftperr "ftpc/internal/errors"
)

// Config holds every tuneable for a single ftpc session.  The koanf tags
// name the keys used by the YAML file and the FTPC_* environment.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Tunnel TunnelConfig `koanf:"tunnel"`

	Timeout     time.Duration `koanf:"timeout"`
	Retries     int           `koanf:"retries"` // extra connect attempts
	DisableEPSV bool          `koanf:"disable_epsv"`
	Verbose     int           `koanf:"verbose"`
}

// ServerConfig identifies the FTP server and account.
type ServerConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Dir      string `koanf:"dir"` // entered right after login
}

// TunnelConfig describes the optional SSH jump host.
type TunnelConfig struct {
	Spec          string `koanf:"spec"` // [user@]host[:port]
	Key           string `koanf:"key"`
	Password      bool   `koanf:"password"` // prompt interactively
	Agent         bool   `koanf:"agent"`
	StrictHostKey bool   `koanf:"strict_hostkey"`
	KnownHosts    string `koanf:"known_hosts"`
}

// TunnelEnabled reports whether connections go through an SSH jump host.
func (c *Config) TunnelEnabled() bool { return c.Tunnel.Spec != "" }

// ── Spec parsers ─────────────────────────────────────────────────────

// endpointRe matches [user@]host[:port]; the last '@' separates the
// user, and bracketed IPv6 hosts are accepted.
var endpointRe = regexp.MustCompile(`^(?:(.+)@)?(\[[^\]]+\]|[^:@\[\]]+)(?::(\d+))?$`)

func parseEndpoint(kind, spec string, defPort int) (user, host string, port int, err error) {
	m := endpointRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid %s spec %q – expected [user@]host[:port]", kind, spec)
	}
	user = m[1]
	host = strings.Trim(m[2], "[]")
	port = defPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid %s port %q", kind, m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("%s host is required", kind)
	}
	return user, host, port, nil
}

// ParseServerSpec extracts user, host, and port from a string such as
// "demo@ftp.example.com:2121".  Port defaults to 21.
func ParseServerSpec(spec string) (user, host string, port int, err error) {
	return parseEndpoint("server", spec, DefaultFTPPort)
}

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	return parseEndpoint("tunnel", spec, DefaultSSHPort)
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return &ftperr.ConfigError{
			Field:   "host",
			Message: "FTP server host is required",
			Hint:    "pass -H <host>, set FTPC_SERVER_HOST, or add server.host to the config file",
		}
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ftperr.ConfigError{
			Field:   "port",
			Value:   c.Server.Port,
			Message: "port out of range 1-65535",
		}
	}
	if c.Server.User == "" {
		return &ftperr.ConfigError{
			Field:   "user",
			Message: "user name is required",
			Hint:    "use \"anonymous\" for public servers",
		}
	}
	if c.Timeout < 0 {
		return &ftperr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}
	if c.Retries < 0 {
		return &ftperr.ConfigError{Field: "retries", Value: c.Retries, Message: "must not be negative"}
	}

	if c.TunnelEnabled() {
		user, _, _, err := ParseTunnelSpec(c.Tunnel.Spec)
		if err != nil {
			return &ftperr.ConfigError{
				Field:   "tunnel",
				Value:   c.Tunnel.Spec,
				Message: err.Error(),
				Hint:    "expected user@host[:port], e.g. admin@bastion:22",
			}
		}
		if user == "" {
			return &ftperr.ConfigError{
				Field:   "tunnel",
				Value:   c.Tunnel.Spec,
				Message: "SSH user is required",
				Hint:    "expected user@host[:port], e.g. admin@bastion:22",
			}
		}
		if c.Tunnel.StrictHostKey && c.Tunnel.KnownHosts == "" {
			return &ftperr.ConfigError{
				Field:   "known-hosts",
				Message: "strict host key checking needs a known_hosts file",
			}
		}
	} else if c.Tunnel.Key != "" || c.Tunnel.Agent || c.Tunnel.Password {
		return &ftperr.ConfigError{
			Field:   "tunnel",
			Message: "SSH authentication options given without a tunnel",
			Hint:    "add -T user@host to route the session through a jump host",
		}
	}

	return nil
}
