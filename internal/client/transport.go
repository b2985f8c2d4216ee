package client

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/NordCoder/authgate/internal/obs"
)

const defaultTimeout = 15 * time.Second

func newTransport(dialTimeout time.Duration) http.RoundTripper {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}
	return obs.HTTPTransport(t)
}
