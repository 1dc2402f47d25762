package extractor

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

// FingerprintTransport speaks TLS with a Chrome ClientHello so the upstream
// sees a browser handshake instead of Go's. HTTPS requests go over HTTP/2
// first and are retried once over HTTP/1.1 when that fails; plain HTTP
// requests use the HTTP/1.1 transport directly.
type FingerprintTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

func NewFingerprintTransport() *FingerprintTransport {
	t := &FingerprintTransport{}

	t.h2 = &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialChrome(ctx, network, addr, false)
		},
	}

	t.h1 = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChrome(ctx, network, addr, true)
		},
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	return t
}

func (t *FingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	// a consumed body can only be replayed through GetBody
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return nil, fmt.Errorf("replay request body: %w", berr)
		}
		retry.Body = body
	}

	return t.h1.RoundTrip(retry)
}

// CloseIdleConnections releases pooled connections of both transports.
func (t *FingerprintTransport) CloseIdleConnections() {
	t.h2.CloseIdleConnections()
	t.h1.CloseIdleConnections()
}

// dialChrome opens a TLS connection with the Chrome 120 fingerprint. With
// http1Only the ALPN extension is narrowed to http/1.1 so the server cannot
// pick h2 for a connection the HTTP/1.1 transport will use.
func dialChrome(ctx context.Context, network, addr string, http1Only bool) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	cfg := &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	var tlsConn *utls.UConn
	if http1Only {
		spec, err := utls.UTLSIdToSpec(utls.HelloChrome_120)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("chrome hello spec: %w", err)
		}
		for _, ext := range spec.Extensions {
			if alpn, ok := ext.(*utls.ALPNExtension); ok {
				alpn.AlpnProtocols = []string{"http/1.1"}
			}
		}
		tlsConn = utls.UClient(conn, cfg, utls.HelloCustom)
		if err := tlsConn.ApplyPreset(&spec); err != nil {
			conn.Close()
			return nil, fmt.Errorf("apply chrome hello: %w", err)
		}
	} else {
		tlsConn = utls.UClient(conn, cfg, utls.HelloChrome_120)
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
