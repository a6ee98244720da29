package ratelimit

import (
	"net/http"
	"sync"

	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/biasnet/influence/internal/rest/middleware/clientip"
	restTypes "github.com/biasnet/influence/internal/rest/types"
	"github.com/biasnet/influence/internal/setup/config"
	"github.com/bytedance/sonic"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Middleware throttles requests per client IP with a token bucket.
type Middleware struct {
	limiters     map[string]*rate.Limiter
	limiterMutex sync.RWMutex
	config       *config.RateLimit
	logger       *zap.Logger
}

// New creates a new rate limiting middleware.
func New(config *config.RateLimit, logger *zap.Logger) *Middleware {
	return &Middleware{
		limiters: make(map[string]*rate.Limiter),
		config:   config,
		logger:   logger.Named("rate_limit"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler. It expects the
// client IP middleware to run first.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		if !m.config.Enabled {
			return next(w, req)
		}

		clientIP := clientip.FromContext(req.Context())
		if m.getLimiter(clientIP).Allow() {
			return next(w, req)
		}

		m.logger.Debug("Rate limit exceeded",
			zap.String("ip", clientIP),
			zap.String("route", req.Route()))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)

		return sonic.ConfigDefault.NewEncoder(w).Encode(restTypes.ErrorResponse{
			Success: false,
			Code:    enum.OutcomeCodeConflict,
			Message: "rate limit exceeded",
		})
	}
}

// getLimiter retrieves or creates a rate limiter for the given IP.
func (m *Middleware) getLimiter(ip string) *rate.Limiter {
	// Try to get existing limiter
	m.limiterMutex.RLock()
	limiter, exists := m.limiters[ip]
	m.limiterMutex.RUnlock()

	if exists {
		return limiter
	}

	// Create new limiter if none exists
	m.limiterMutex.Lock()
	defer m.limiterMutex.Unlock()

	limiter, exists = m.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(m.config.RequestsPerSecond), m.config.BurstSize)
		m.limiters[ip] = limiter
	}

	return limiter
}
