package config

import (
	"os"
	"path/filepath"
	"time"
)

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultFTPPort is the standard FTP control port.
	DefaultFTPPort = 21

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultUser logs in to public servers.
	DefaultUser = "anonymous"

	// DefaultPassword is the conventional anonymous password.
	DefaultPassword = "anonymous@"

	// DefaultConnTimeout bounds the TCP/SSH dial and the FTP greeting.
	DefaultConnTimeout = 30 * time.Second

	// DefaultRetries is how many extra connect attempts the host makes.
	DefaultRetries = 2

	// EnvPrefix prefixes every environment variable ftpc reads.
	EnvPrefix = "FTPC_"
)

// Defaults returns a Config populated with the default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:     DefaultFTPPort,
			User:     DefaultUser,
			Password: DefaultPassword,
		},
		Tunnel: TunnelConfig{
			KnownHosts: defaultKnownHosts(),
		},
		Timeout: DefaultConnTimeout,
		Retries: DefaultRetries,
	}
}

func defaultKnownHosts() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}
