package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
)

// ErrNoCertsFound is returned when PEM input holds no certificate.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// Pool is a set of trusted roots.
type Pool struct {
	certs *x509.CertPool
	added int
}

// NewPool starts from the system roots, or an empty pool where the
// platform offers none.
func NewPool() *Pool {
	certs, err := x509.SystemCertPool()
	if err != nil {
		certs = x509.NewCertPool()
	}
	return &Pool{certs: certs}
}

// NewEmptyPool trusts only what is added to it.
func NewEmptyPool() *Pool {
	return &Pool{certs: x509.NewCertPool()}
}

// LoadCAFile returns the system roots plus every certificate in path.
func LoadCAFile(path string) (*Pool, error) {
	p := NewPool()
	if err := p.AddCertFile(path); err != nil {
		return nil, err
	}
	return p, nil
}

// AddCertFile adds every certificate in a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read %s: %w", path, err)
	}
	if err := p.AddCertPEM(data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// AddCertPEM adds every CERTIFICATE block; other blocks are skipped.
func (p *Pool) AddCertPEM(data []byte) error {
	n := 0
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certs.AddCert(cert)
		n++
	}
	if n == 0 {
		return ErrNoCertsFound
	}
	p.added += n
	return nil
}

// Added is the number of certificates added beyond the starting roots.
func (p *Pool) Added() int { return p.added }

// CertPool returns the underlying pool.
func (p *Pool) CertPool() *x509.CertPool { return p.certs }

// TLSConfig trusts this pool and requires TLS 1.2 or later.
func (p *Pool) TLSConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    p.certs,
		MinVersion: tls.VersionTLS12,
	}
}

// HTTPClient returns a client whose transport trusts this pool and
// otherwise behaves like http.DefaultTransport.
func (p *Pool) HTTPClient() *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = p.TLSConfig()
	return &http.Client{Transport: tr}
}
