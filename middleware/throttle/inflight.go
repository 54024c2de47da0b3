package throttle

import (
	"net/http"
	"time"

	"throttling-gateway/middleware/throttle/application"
	"throttling-gateway/middleware/throttle/infra"
)

type InFlightOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

// InFlightMiddleware limita quantos requests podem estar em voo ao mesmo
// tempo. Max <= 0 desliga o limite.
func InFlightMiddleware(opts InFlightOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.InFlightService{
		Pool:           infra.NewSemaphore(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
