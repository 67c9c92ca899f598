/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// TransportArgs configures the HTTP client handed to the object-store SDK:
// a single place that owns dial and TLS timeouts instead of every caller
// constructing its own http.Client.
type TransportArgs struct {
	Timeout         time.Duration
	UseHTTPS        bool
	SkipVerify      bool
	IdleConnTimeout time.Duration
	MaxIdleConns    int
}

func NewClient(args TransportArgs) *http.Client {
	if args.IdleConnTimeout == 0 {
		args.IdleConnTimeout = 90 * time.Second
	}
	if args.MaxIdleConns == 0 {
		args.MaxIdleConns = 100
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:    args.MaxIdleConns,
		IdleConnTimeout: args.IdleConnTimeout,
	}
	if args.UseHTTPS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: args.SkipVerify} //nolint:gosec // operator opt-in only
	}
	return &http.Client{Transport: transport, Timeout: args.Timeout}
}
