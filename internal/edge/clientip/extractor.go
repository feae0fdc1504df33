// Package clientip resolves the visitor address recorded in access events.
package clientip

import (
	"net"
	"strings"

	"github.com/valyala/fasthttp"
)

const forwardedHeader = "Forwarded"

// Extractor reads the client address from trusted proxy headers
type Extractor struct {
	headers []string
}

// New returns an Extractor that checks headers in order. Empty entries are ignored.
func New(headers []string) *Extractor {
	e := &Extractor{}
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			e.headers = append(e.headers, h)
		}
	}
	return e
}

// Extract returns the first parseable address from the configured headers,
// or the connection's remote address
func (e *Extractor) Extract(ctx *fasthttp.RequestCtx) string {
	for _, header := range e.headers {
		value := strings.TrimSpace(string(ctx.Request.Header.Peek(header)))
		if value == "" {
			continue
		}
		var ip string
		if strings.EqualFold(header, forwardedHeader) {
			ip = parseForwarded(value)
		} else {
			ip = firstHop(value)
		}
		if ip != "" {
			return ip
		}
	}
	return parseRemoteAddr(ctx.RemoteAddr().String())
}

// firstHop returns the leftmost address of a comma-separated proxy chain
func firstHop(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		value = value[:idx]
	}
	return normalizeIP(strings.TrimSpace(value))
}

// parseForwarded reads the for= parameter of the first RFC 7239 element
func parseForwarded(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		value = value[:idx]
	}
	for _, pair := range strings.Split(value, ";") {
		key, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || !strings.EqualFold(key, "for") {
			continue
		}
		val = strings.Trim(val, `"`)
		if host, _, err := net.SplitHostPort(val); err == nil {
			val = host
		}
		return normalizeIP(val)
	}
	return ""
}

func parseRemoteAddr(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if ip := normalizeIP(host); ip != "" {
		return ip
	}
	return host
}

// normalizeIP strips brackets and zone ids. Unparseable input yields "".
func normalizeIP(raw string) string {
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	if idx := strings.IndexByte(raw, '%'); idx >= 0 {
		raw = raw[:idx]
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return ""
	}
	return ip.String()
}
