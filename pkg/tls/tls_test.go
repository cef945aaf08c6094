// SPDX-License-Identifier: Apache-2.0

package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testCert struct {
	certPEM  []byte
	keyPEM   []byte
	certFile string
	keyFile  string
}

func newTestCert(t *testing.T) *testCert {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "elasticsearch"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	tc := &testCert{
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		keyPEM:  pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	}

	dir := t.TempDir()
	tc.certFile = filepath.Join(dir, "engine.pem")
	tc.keyFile = filepath.Join(dir, "engine.key")
	require.NoError(t, os.WriteFile(tc.certFile, tc.certPEM, 0o600))
	require.NoError(t, os.WriteFile(tc.keyFile, tc.keyPEM, 0o600))

	return tc
}

func Test_NewConfig(t *testing.T) {
	t.Parallel()

	cert := newTestCert(t)

	systemCAs, err := x509.SystemCertPool()
	require.NoError(t, err)

	testCAs := x509.NewCertPool()
	testCAs.AppendCertsFromPEM(cert.certPEM)

	keyPair, err := tls.X509KeyPair(cert.certPEM, cert.keyPEM)
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  *Config

		wantNil          bool
		wantRootCAs      *x509.CertPool
		wantCertificates []tls.Certificate
		wantInsecure     bool
		wantErr          error
	}{
		{
			name:    "ok - nil config",
			cfg:     nil,
			wantNil: true,
		},
		{
			name:    "ok - tls not enabled",
			cfg:     &Config{Enabled: false, CACertFile: cert.certFile},
			wantNil: true,
		},
		{
			name:        "ok - system certificates",
			cfg:         &Config{Enabled: true},
			wantRootCAs: systemCAs,
		},
		{
			name:        "ok - CA certificate file",
			cfg:         &Config{Enabled: true, CACertFile: cert.certFile},
			wantRootCAs: testCAs,
		},
		{
			name:        "ok - inline CA certificate",
			cfg:         &Config{Enabled: true, CACertPEM: string(cert.certPEM)},
			wantRootCAs: testCAs,
		},
		{
			name: "ok - client certificate files",
			cfg: &Config{
				Enabled:        true,
				CACertFile:     cert.certFile,
				ClientCertFile: cert.certFile,
				ClientKeyFile:  cert.keyFile,
			},
			wantRootCAs:      testCAs,
			wantCertificates: []tls.Certificate{keyPair},
		},
		{
			name: "ok - inline client certificate",
			cfg: &Config{
				Enabled:       true,
				ClientCertPEM: string(cert.certPEM),
				ClientKeyPEM:  string(cert.keyPEM),
			},
			wantRootCAs:      systemCAs,
			wantCertificates: []tls.Certificate{keyPair},
		},
		{
			name:         "ok - insecure skip verify",
			cfg:          &Config{Enabled: true, InsecureSkipVerify: true},
			wantRootCAs:  systemCAs,
			wantInsecure: true,
		},
		{
			name:    "error - missing CA certificate file",
			cfg:     &Config{Enabled: true, CACertFile: "doesnotexist.pem"},
			wantErr: os.ErrNotExist,
		},
		{
			name:    "error - CA without certificates",
			cfg:     &Config{Enabled: true, CACertPEM: "not a pem"},
			wantErr: errNoCACertificate,
		},
		{
			name:    "error - client certificate without key",
			cfg:     &Config{Enabled: true, ClientCertFile: cert.certFile},
			wantErr: errIncompleteClientCert,
		},
		{
			name:    "error - missing client key file",
			cfg:     &Config{Enabled: true, ClientCertFile: cert.certFile, ClientKeyFile: "doesnotexist.key"},
			wantErr: os.ErrNotExist,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := NewConfig(tc.cfg)
			require.ErrorIs(t, err, tc.wantErr)
			if tc.wantErr != nil || tc.wantNil {
				require.Nil(t, cfg)
				return
			}

			require.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
			require.True(t, tc.wantRootCAs.Equal(cfg.RootCAs))
			require.Equal(t, certificateChains(tc.wantCertificates), certificateChains(cfg.Certificates))
			require.Equal(t, tc.wantInsecure, cfg.InsecureSkipVerify)
		})
	}
}

func certificateChains(certs []tls.Certificate) [][][]byte {
	chains := make([][][]byte, 0, len(certs))
	for _, c := range certs {
		chains = append(chains, c.Certificate)
	}
	return chains
}

func Test_NewConfig_invalidKeyPair(t *testing.T) {
	t.Parallel()

	cert := newTestCert(t)

	_, err := NewConfig(&Config{
		Enabled:        true,
		ClientCertFile: cert.certFile,
		ClientKeyFile:  cert.certFile,
	})
	require.ErrorContains(t, err, "parsing client key pair")
}
