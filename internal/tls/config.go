// internal/tls/config.go
package tls

import (
	"crypto/tls"
	"fmt"

	"portfolio/internal/observability/logging"
)

// Config holds the server TLS configuration
type Config struct {
	// Logger is the logger to use
	Logger *logging.Logger

	// CertPath is the path to the server certificate
	CertPath string

	// KeyPath is the path to the server key
	KeyPath string
}

// GetTLSConfig loads the server key pair and returns a TLS configuration
func (c *Config) GetTLSConfig() (*tls.Config, error) {
	c.Logger.Debug("Initializing TLS configuration", "cert", c.CertPath)

	if c.CertPath == "" || c.KeyPath == "" {
		return nil, fmt.Errorf("TLS certificate and key paths are required")
	}

	cert, err := tls.LoadX509KeyPair(c.CertPath, c.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	c.Logger.Info("TLS configuration successful")
	return tlsConfig, nil
}
