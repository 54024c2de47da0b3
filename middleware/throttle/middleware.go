package throttle

import (
	"net/http"
	"time"

	"throttling-gateway/middleware/throttle/application"
	"throttling-gateway/middleware/throttle/domain"

	"github.com/rs/zerolog"
)

type Options struct {
	Buckets domain.BucketStore
	Stats   domain.StatsStore
	KeyFn   KeyFunc

	RejectStatus       int
	AddThrottleHeaders bool

	Logger *zerolog.Logger
}

// budgetInfo é o mínimo que um BucketStore precisa expor para os headers
// informativos; o Registry de infra implementa.
type budgetInfo interface {
	Capacity() int
	Window() time.Duration
}

// Middleware devolve um middleware net/http que sonda o bucket da chave de
// partição do request e ou encaminha para next ou sintetiza a rejeição.
//
// KeyFn nil seleciona o bucket global (chave vazia). Falha na avaliação da
// chave responde 500 e não toca no registry: é erro de configuração, não
// decisão de throttling, e aparece como key_error em logs e estatísticas.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = GlobalKey()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	svc := application.Service{Buckets: opts.Buckets}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := opts.KeyFn(r)
			if err != nil {
				logger.Error().
					Err(err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("partition key evaluation failed")
				record(opts.Stats, r, "", domain.OutcomeKeyError)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if opts.AddThrottleHeaders {
				w.Header().Set("X-Throttle-Key", key)
				if bi, ok := opts.Buckets.(budgetInfo); ok {
					w.Header().Set("X-Throttle-Limit", formatInt(bi.Capacity()))
					w.Header().Set("X-Throttle-Window", bi.Window().String())
				}
			}

			dec := svc.Decide(domain.Key(key))
			if !dec.Allowed {
				record(opts.Stats, r, key, domain.OutcomeThrottled)
				logger.Debug().
					Str("key", key).
					Dur("retry_after", dec.RetryAfter).
					Msg("request throttled")
				w.Header().Set("Retry-After", formatInt(retrySeconds(dec.RetryAfter)))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}

			record(opts.Stats, r, key, domain.OutcomeAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

func record(stats domain.StatsStore, r *http.Request, key string, out domain.Outcome) {
	if stats == nil {
		return
	}
	_ = stats.Record(r.Context(), domain.StatsEvent{
		Key:     domain.Key(key),
		Outcome: out,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	})
}
