// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/taibuivan/kkm-registry/internal/platform/constants"
)

// # Client Address

// ProxyTrust decides whose forwarding headers are believed.
//
// A nil *ProxyTrust trusts nobody: the client address is always the TCP peer.
type ProxyTrust struct {
	prefixes []netip.Prefix
}

// NewProxyTrust parses proxies, each a CIDR ("10.0.0.0/8") or a bare address.
// An empty list returns nil.
func NewProxyTrust(proxies []string) (*ProxyTrust, error) {
	var prefixes []netip.Prefix

	for _, raw := range proxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("middleware: invalid trusted proxy %q: %w", raw, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("middleware: invalid trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	if len(prefixes) == 0 {
		return nil, nil
	}
	return &ProxyTrust{prefixes: prefixes}, nil
}

func (trust *ProxyTrust) trusts(addr netip.Addr) bool {
	if trust == nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trust.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

/*
ClientIP returns the address a request is attributed to for logging and rate
limiting.

X-Real-IP and X-Forwarded-For are read only when the TCP peer is a trusted
proxy. X-Forwarded-For is walked right to left and the first hop that is not
itself a trusted proxy wins, so a client cannot prepend its own entry.
*/
func (trust *ProxyTrust) ClientIP(request *http.Request) string {
	peer := remoteHost(request.RemoteAddr)

	peerAddr, err := netip.ParseAddr(peer)
	if err != nil || !trust.trusts(peerAddr) {
		return peer
	}

	if realIP, err := netip.ParseAddr(strings.TrimSpace(request.Header.Get(constants.HeaderXRealIP))); err == nil {
		return realIP.Unmap().String()
	}

	hops := strings.Split(request.Header.Get(constants.HeaderXForwardedFor), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		if !trust.trusts(hop) {
			return hop.Unmap().String()
		}
	}

	return peer
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
