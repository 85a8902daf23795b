// Package transport builds the HTTPS clients used for outbound wallet API
// calls. Hosts inside the Tor network are dialed through a local SOCKS5
// proxy; everything else connects directly.
package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// Policy captures the deployment's transport decisions. AllowInsecureTLS
// disables certificate verification: many self-hosted wallet nodes serve
// self-signed certificates, but flipping this weakens transport security and
// is therefore an explicit setting, not a default baked into the code.
type Policy struct {
	AllowInsecureTLS bool
	// TorProxyURL is the local SOCKS5 endpoint, e.g. socks5://127.0.0.1:9050.
	TorProxyURL string
}

// Client returns an HTTP client for one backend call. onion selects the
// proxied path. Clients are built per call since consecutive requests may
// target different backends.
func (p Policy) Client(onion bool, timeout time.Duration) (*http.Client, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: p.AllowInsecureTLS}

	transport := &http.Transport{
		TLSClientConfig: tlsConfig,
	}

	if onion {
		dialer, err := p.torDialer()
		if err != nil {
			return nil, err
		}
		transport.DialContext = dialer.DialContext
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

func (p Policy) torDialer() (proxy.ContextDialer, error) {
	u, err := url.Parse(p.TorProxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid tor proxy url %q: %w", p.TorProxyURL, err)
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return nil, fmt.Errorf("tor proxy url %q: unsupported scheme %q", p.TorProxyURL, u.Scheme)
	}

	var auth *proxy.Auth
	if u.User != nil {
		password, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: password}
	}

	dialer, err := proxy.SOCKS5("tcp", u.Host, auth, &net.Dialer{})
	if err != nil {
		return nil, fmt.Errorf("building socks5 dialer: %w", err)
	}

	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer does not support context dialing")
	}
	return contextDialer, nil
}
