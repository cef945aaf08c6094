// SPDX-License-Identifier: Apache-2.0

package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// Config describes how the connection to the search engine is secured. The
// PEM content fields are used when the matching file path is empty.
type Config struct {
	// Enabled switches the engine connection to TLS. Defaults to false.
	Enabled bool
	// CACertFile is the PEM bundle of the authorities trusted for the engine
	// certificate. The system pool is used when no CA is provided.
	CACertFile string
	CACertPEM  string
	// Client certificate and key, for engines requiring mutual TLS.
	ClientCertFile string
	ClientCertPEM  string
	ClientKeyFile  string
	ClientKeyPEM   string
	// InsecureSkipVerify accepts any engine certificate. Only meant for local
	// clusters running with self signed certificates.
	InsecureSkipVerify bool
}

var (
	errIncompleteClientCert = errors.New("client certificate and key must be provided together")
	errNoCACertificate      = errors.New("no certificate found in CA PEM")
)

// NewConfig returns the tls configuration for the engine transport, or nil
// when TLS is not enabled.
func NewConfig(cfg *Config) (*tls.Config, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	rootCAs, err := cfg.rootCAs()
	if err != nil {
		return nil, err
	}

	certificates, err := cfg.certificates()
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		Certificates:       certificates,
		RootCAs:            rootCAs,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}, nil
}

func (c *Config) rootCAs() (*x509.CertPool, error) {
	pemBytes, err := readPEM(c.CACertFile, c.CACertPEM)
	if err != nil {
		return nil, fmt.Errorf("reading CA certificate: %w", err)
	}
	if len(pemBytes) == 0 {
		return x509.SystemCertPool()
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemBytes) {
		return nil, errNoCACertificate
	}
	return pool, nil
}

func (c *Config) certificates() ([]tls.Certificate, error) {
	hasCert := c.ClientCertFile != "" || c.ClientCertPEM != ""
	hasKey := c.ClientKeyFile != "" || c.ClientKeyPEM != ""
	switch {
	case !hasCert && !hasKey:
		return nil, nil
	case hasCert != hasKey:
		return nil, errIncompleteClientCert
	}

	certPEM, err := readPEM(c.ClientCertFile, c.ClientCertPEM)
	if err != nil {
		return nil, fmt.Errorf("reading client certificate: %w", err)
	}
	keyPEM, err := readPEM(c.ClientKeyFile, c.ClientKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("reading client key: %w", err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing client key pair: %w", err)
	}
	return []tls.Certificate{cert}, nil
}

// readPEM returns the content of the file when one is given, the inline PEM
// otherwise.
func readPEM(file, inline string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}
	return []byte(inline), nil
}
