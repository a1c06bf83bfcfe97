package frontend

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/lkarlslund/stixgraph/modules/persistence"
	"github.com/lkarlslund/stixgraph/modules/ui"
)

var ErrNotPEM = errors.New("neither a readable file nor PEM data")

// WithCert switches the service to HTTPS. Both arguments can be file paths or the
// PEM data itself, which is handy when they come from environment variables.
func WithCert(certificate, privateKey string) optionsetter {
	return func(ws *WebService) error {
		certPEM, err := readPEM(certificate)
		if err != nil {
			return fmt.Errorf("certificate: %w", err)
		}
		keyPEM, err := readPEM(privateKey)
		if err != nil {
			return fmt.Errorf("private key: %w", err)
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return err
		}
		if cert.Leaf == nil {
			if cert.Leaf, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
				return err
			}
		}

		log := ui.Info().Str("subject", cert.Leaf.Subject.CommonName).Any("expires", cert.Leaf.NotAfter.Format(time.DateOnly))
		if time.Now().After(cert.Leaf.NotAfter) {
			log = ui.Warn().Str("subject", cert.Leaf.Subject.CommonName).Any("expired", cert.Leaf.NotAfter.Format(time.DateOnly))
		}
		log.Msgf("Serving HTTPS for %v", strings.Join(cert.Leaf.DNSNames, ", "))

		ws.protocol = "https"
		ws.srv.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		return nil
	}
}

func readPEM(pathOrData string) ([]byte, error) {
	if strings.Contains(pathOrData, "-----BEGIN ") {
		return []byte(pathOrData), nil
	}
	data, err := os.ReadFile(pathOrData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPEM, err)
	}
	return data, nil
}

// WithProfiling exposes the Go profiler under /debug/pprof
func WithProfiling() optionsetter {
	return func(ws *WebService) error {
		pprof.Register(ws.engine)
		return nil
	}
}

// WithPersistence enables saved queries backed by db
func WithPersistence(db *persistence.Database) optionsetter {
	return func(ws *WebService) error {
		ws.db = db
		return nil
	}
}
