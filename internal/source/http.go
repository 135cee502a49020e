package source

import (
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds every single source request.
const DefaultTimeout = 20 * time.Second

var httpTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}).DialContext,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	DisableCompression:  false,
}

// The per-request deadline comes from the caller's context.
var httpClient = &http.Client{
	Transport: httpTransport,
}
