// Package security inspects the TLS certificate presented by the oracle
// endpoint. The `cert` CLI command prints the result, and watch mode
// warns when the certificate is close to expiry.
package security

import (
	"context"
	"crypto/tls"
	"math"
	"net"
	"net/url"
	"time"

	"github.com/graphtrust/graphtrust/internal/config"
)

// CertStatus describes the leaf certificate of the oracle endpoint.
type CertStatus struct {
	Endpoint string
	Status   string // valid | expiring | expired | unreachable
	Issuer   string
	NotAfter string // RFC 3339, empty when unreachable
	DaysLeft int
}

// expiringWithinDays is the warning horizon for the "expiring" status.
const expiringWithinDays = 30

// Check dials the oracle's TLS endpoint and returns a CertStatus
// describing the leaf certificate.
//
// Returns nil for non-HTTPS base addresses — there is no certificate to
// inspect. Uses a 10-second dial timeout so a slow host does not block
// the watch loop indefinitely.
func Check(ctx context.Context, cfg config.OracleConfig) *CertStatus {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme != "https" {
		return nil // nothing to inspect for plain-HTTP or unparseable addresses
	}

	cs := &CertStatus{Endpoint: cfg.BaseURL}

	host := u.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		// No explicit port in the URL — append the HTTPS default.
		host = net.JoinHostPort(host, "443")
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config: &tls.Config{
			InsecureSkipVerify: cfg.TLS.InsecureSkipVerify, //nolint:gosec
		},
	}

	netConn, err := dialer.DialContext(dialCtx, "tcp", host)
	if err != nil {
		cs.Status = "unreachable"
		return cs
	}
	conn := netConn.(*tls.Conn)
	defer conn.Close()

	peerCerts := conn.ConnectionState().PeerCertificates
	if len(peerCerts) == 0 {
		cs.Status = "unreachable"
		return cs
	}

	leaf := peerCerts[0]
	daysLeft := time.Until(leaf.NotAfter).Hours() / 24

	cs.NotAfter = leaf.NotAfter.UTC().Format(time.RFC3339)
	cs.Issuer = leaf.Issuer.CommonName
	cs.DaysLeft = int(math.Floor(daysLeft))

	switch {
	case daysLeft <= 0:
		cs.Status = "expired"
	case daysLeft <= expiringWithinDays:
		cs.Status = "expiring"
	default:
		cs.Status = "valid"
	}

	return cs
}
