// Package tlscert supplies the HTTPS listener's certificate, either from
// operator-managed files or from a self-signed pair generated for local use.
package tlscert

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"

	"trade-graphql-mcp/internal/logging"
)

// Mode mirrors server.tls_mode.
type Mode string

const (
	ModeFile Mode = "file"
	ModeAuto Mode = "auto"
)

// MinTLSVersion is the minimum supported TLS version for the server.
const MinTLSVersion = tls.VersionTLS13

// Config selects and locates the certificate.
type Config struct {
	Mode Mode

	CertFile string
	KeyFile  string

	// AutoCertDir holds server.crt and server.key in auto mode.
	AutoCertDir string
	Hosts       []string
}

// DefaultHosts are the names a generated certificate covers.
var DefaultHosts = []string{"localhost", "127.0.0.1", "::1"}

// Source hands certificates to the HTTP server.
type Source struct {
	mode     Mode
	certFile string
	keyFile  string
	logger   *logging.Logger
	// cached is set in auto mode; file mode reloads per handshake so the
	// operator can rotate certificates without a restart.
	cached *tls.Certificate
}

// Load validates cfg and prepares a Source. In auto mode it generates a
// certificate when none exists or the existing one is expired or covers
// other hosts.
func Load(cfg Config, logger *logging.Logger) (*Source, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	switch cfg.Mode {
	case ModeFile:
		return loadFiles(cfg, logger)
	case ModeAuto:
		return loadAuto(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported tls_mode %q (valid modes: file, auto)", cfg.Mode)
	}
}

func loadFiles(cfg Config, logger *logging.Logger) (*Source, error) {
	if cfg.CertFile == "" {
		return nil, fmt.Errorf("tls_cert_file is required when tls_mode=file")
	}
	if cfg.KeyFile == "" {
		return nil, fmt.Errorf("tls_key_file is required when tls_mode=file")
	}
	if err := checkReadableFile(cfg.CertFile); err != nil {
		return nil, fmt.Errorf("invalid certificate file: %w", err)
	}
	if err := checkReadableFile(cfg.KeyFile); err != nil {
		return nil, fmt.Errorf("invalid key file: %w", err)
	}
	if err := checkKeyFilePermissions(cfg.KeyFile); err != nil {
		return nil, fmt.Errorf("insecure key file permissions: %w", err)
	}
	if _, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile); err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}
	return &Source{mode: ModeFile, certFile: cfg.CertFile, keyFile: cfg.KeyFile, logger: logger}, nil
}

// TLSConfig returns a server tls.Config.
func (s *Source) TLSConfig() *tls.Config {
	cfg := &tls.Config{MinVersion: MinTLSVersion}
	if s.cached != nil {
		cfg.Certificates = []tls.Certificate{*s.cached}
		return cfg
	}
	cfg.GetCertificate = func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		cert, err := tls.LoadX509KeyPair(s.certFile, s.keyFile)
		if err != nil {
			s.logger.Error("failed to reload certificate",
				slog.String("cert_file", s.certFile),
				slog.String("error", err.Error()))
			return nil, err
		}
		return &cert, nil
	}
	return cfg
}

// Description names the certificate source for startup logs.
func (s *Source) Description() string {
	if s.mode == ModeAuto {
		return fmt.Sprintf("self-signed (cert=%s) - development only", s.certFile)
	}
	return fmt.Sprintf("file (cert=%s, key=%s)", s.certFile, s.keyFile)
}

func checkReadableFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file")
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty")
	}
	return nil
}

func checkKeyFilePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return fmt.Errorf("key file has permissions %o (should be 0600 or 0400)", mode)
	}
	return nil
}
