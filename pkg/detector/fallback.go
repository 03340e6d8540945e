package detector

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single remote call.
const DefaultTimeout = 5 * time.Second

// Fallback tries a primary source under a bounded timeout and answers from
// the fallback source whenever the primary fails, times out, is rate
// limited, or returns a malformed response.
type Fallback struct {
	primary  Source
	fallback Source
	timeout  time.Duration
	limiter  *rate.Limiter
}

// FallbackOption configures a Fallback.
type FallbackOption func(*Fallback)

// WithTimeout sets the per-call deadline for the primary source.
func WithTimeout(d time.Duration) FallbackOption {
	return func(f *Fallback) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRateLimit caps primary calls at rps with the given burst. Calls over
// the limit go straight to the fallback.
func WithRateLimit(rps float64, burst int) FallbackOption {
	return func(f *Fallback) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLimiter shares an existing limiter, so several Fallback values built
// over the same remote service draw from one budget.
func WithLimiter(l *rate.Limiter) FallbackOption {
	return func(f *Fallback) {
		f.limiter = l
	}
}

// NewFallback wraps primary with fallback.
func NewFallback(primary, fallback Source, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		primary:  primary,
		fallback: fallback,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name combines both source names.
func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.fallback.Name()
}

// FindCandidates returns the primary's candidates, or the fallback's on any failure.
func (f *Fallback) FindCandidates(ctx context.Context, text string) ([]Candidate, error) {
	if f.limiter != nil && !f.limiter.Allow() {
		slog.Debug("Remote detector rate limited, using fallback",
			"primary", f.primary.Name(), "fallback", f.fallback.Name())
		return f.fallback.FindCandidates(ctx, text)
	}

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cands, err := f.primary.FindCandidates(callCtx, text)
	if err == nil {
		return cands, nil
	}

	slog.Warn("Remote detector failed, using fallback",
		"primary", f.primary.Name(),
		"fallback", f.fallback.Name(),
		"timeout", f.timeout,
		"error", err)
	return f.fallback.FindCandidates(ctx, text)
}
