package requestlog

import (
	"net/http"
	"time"

	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// statusRecorder remembers the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.status = http.StatusOK
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}

// Middleware logs every request and turns handler errors and panics into 500s.
type Middleware struct {
	logger *zap.Logger
}

// New creates a new request logging middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{
		logger: logger.Named("http"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) (err error) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				m.logger.Error("Handler panicked",
					zap.String("method", req.Method),
					zap.String("route", req.Route()),
					zap.Any("panic", p),
					zap.Stack("stack"))
				if !rec.wroteHeader {
					http.Error(rec, "Internal server error", http.StatusInternalServerError)
				}
				err = nil
			}

			m.logger.Debug("Handled request",
				zap.String("method", req.Method),
				zap.String("route", req.Route()),
				zap.String("path", req.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		}()

		if err := next(rec, req); err != nil {
			m.logger.Error("Handler failed",
				zap.String("method", req.Method),
				zap.String("route", req.Route()),
				zap.Error(err))
			if !rec.wroteHeader {
				http.Error(rec, "Internal server error", http.StatusInternalServerError)
			}
		}

		return nil
	}
}
