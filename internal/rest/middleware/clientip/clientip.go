package clientip

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/biasnet/influence/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type ctxKey struct{}

// UnknownIP is returned when no valid IP can be determined.
const UnknownIP = "unknown"

// FromContext retrieves the client IP stored by the middleware.
func FromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ctxKey{}).(string); ok {
		return ip
	}
	return UnknownIP
}

// Middleware resolves the client IP and stores it in the request context.
// Forwarding headers are only honored when the peer is a trusted proxy.
type Middleware struct {
	trusted []netip.Prefix
	headers []string
	logger  *zap.Logger
}

// New creates a new client IP middleware. Invalid proxy CIDRs are logged and skipped.
func New(cfg *config.ClientIP, logger *zap.Logger) *Middleware {
	logger = logger.Named("client_ip")

	trusted := make([]netip.Prefix, 0, len(cfg.TrustedProxies))
	for _, cidr := range cfg.TrustedProxies {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			logger.Error("Invalid trusted proxy CIDR", zap.String("cidr", cidr), zap.Error(err))
			continue
		}
		trusted = append(trusted, prefix)
	}

	return &Middleware{
		trusted: trusted,
		headers: cfg.Headers,
		logger:  logger,
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		ip := m.Resolve(req.Request)
		ctx := context.WithValue(req.Context(), ctxKey{}, ip)
		return next(w, req.WithContext(ctx))
	}
}

// Resolve returns the address of the client that issued r.
func (m *Middleware) Resolve(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	remote, err := netip.ParseAddr(host)
	if err != nil {
		m.logger.Debug("Invalid remote address", zap.String("addr", r.RemoteAddr))
		return UnknownIP
	}
	remote = remote.Unmap()

	if !m.isTrustedProxy(remote) {
		return remote.String()
	}

	for _, header := range m.headers {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}

		// The left-most entry of a forwarding chain is the original client
		if first, _, _ := strings.Cut(value, ","); first != "" {
			if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
				return addr.Unmap().String()
			}
		}

		m.logger.Debug("Ignoring invalid forwarding header",
			zap.String("header", header),
			zap.String("value", value))
	}

	return remote.String()
}

func (m *Middleware) isTrustedProxy(addr netip.Addr) bool {
	for _, prefix := range m.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
