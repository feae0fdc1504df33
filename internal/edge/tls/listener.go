// Package tls opens the optional HTTPS listener of the public server.
package tls

import (
	"crypto/tls"
	"fmt"
	"net"
	"path/filepath"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
)

// MinVersion is the oldest protocol accepted. Some crawlers still negotiate TLS 1.2.
const MinVersion = tls.VersionTLS12

// Listen opens cfg.Listen with cfg's certificate. Relative certificate paths
// are resolved against baseDir, the directory holding the config file.
func Listen(cfg configtypes.TLSConfig, baseDir string) (net.Listener, error) {
	tlsConfig, err := loadConfig(ResolvePath(cfg.CertFile, baseDir), ResolvePath(cfg.KeyFile, baseDir))
	if err != nil {
		return nil, err
	}

	tcpListener, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}

	return tls.NewListener(tcpListener, tlsConfig), nil
}

// ResolvePath returns path unchanged when absolute, otherwise joined to baseDir
func ResolvePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func loadConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate %s: %w", certFile, err)
	}

	return &tls.Config{
		MinVersion:   MinVersion,
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"http/1.1"},
	}, nil
}
