package infra

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"throttling-gateway/middleware/throttle/domain"
)

// Registry é um cache concorrente chave → TokenBucket com criação preguiçosa
// e expulsão por inatividade.
//
// A criação é exatamente-uma-vez por chave: resolvers concorrentes da mesma
// chave ainda não vista convergem para um único bucket (sync.Map para o
// insert-if-absent + sync.Once por entrada para serializar só a construção,
// sem lock global que atrasaria chaves não relacionadas).
type Registry struct {
	capacity int
	window   time.Duration
	now      domain.Clock

	// entradas mais velhas que window+grace desde o último acesso são
	// descartadas; uma chave que volta depois disso começa com orçamento
	// cheio, de propósito.
	grace      time.Duration
	sweepEvery time.Duration

	entries sync.Map // string → *registryEntry

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type registryEntry struct {
	once     sync.Once
	bucket   *TokenBucket
	lastSeen atomic.Int64 // UnixNano do último Resolve
}

type RegistryOption func(*Registry)

// WithClock injeta a fonte de tempo (padrão: time.Now).
func WithClock(now domain.Clock) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithEvictionGrace define a folga além de uma janela cheia antes de uma
// entrada ociosa ser descartada. Deve ser pequena: só o suficiente para
// absorver jitter de agendamento.
func WithEvictionGrace(d time.Duration) RegistryOption {
	return func(r *Registry) { r.grace = d }
}

func WithSweepEvery(d time.Duration) RegistryOption {
	return func(r *Registry) { r.sweepEvery = d }
}

// NewRegistry valida capacity/window uma única vez, de modo que Resolve
// nunca falha depois.
func NewRegistry(capacity int, window time.Duration, opts ...RegistryOption) (*Registry, error) {
	if _, err := NewTokenBucket(nil, capacity, window); err != nil {
		return nil, err
	}
	r := &Registry{
		capacity:   capacity,
		window:     window,
		now:        time.Now,
		grace:      3 * time.Second,
		sweepEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

func (r *Registry) Capacity() int { return r.capacity }

func (r *Registry) Window() time.Duration { return r.window }

// Resolve implementa domain.BucketStore.
func (r *Registry) Resolve(key domain.Key) domain.Bucket {
	return r.resolve(string(key))
}

func (r *Registry) resolve(key string) *TokenBucket {
	v, loaded := r.entries.Load(key)
	if !loaded {
		ent := &registryEntry{}
		ent.lastSeen.Store(r.now().UnixNano())
		v, loaded = r.entries.LoadOrStore(key, ent)
	}

	ent := v.(*registryEntry)
	// quem perde a corrida do LoadOrStore entra no Do e espera o vencedor
	// terminar a construção; nunca existem dois buckets para a mesma chave.
	ent.once.Do(func() {
		ent.bucket, _ = NewTokenBucket(r.now, r.capacity, r.window)
		r.misses.Add(1)
	})

	if loaded {
		r.hits.Add(1)
	}
	ent.lastSeen.Store(r.now().UnixNano())
	return ent.bucket
}

// Sweep remove as entradas ociosas há mais de window+grace. Usa Range/Delete
// do sync.Map, então não bloqueia Resolves em andamento de outras chaves.
func (r *Registry) Sweep() {
	cutoff := r.now().Add(-(r.window + r.grace)).UnixNano()
	r.entries.Range(func(k, v any) bool {
		ent := v.(*registryEntry)
		if ent.lastSeen.Load() < cutoff {
			r.entries.Delete(k)
			r.evictions.Add(1)
		}
		return true
	})
}

// StartJanitor inicia uma goroutine que expulsa chaves inativas
// periodicamente. Pare cancelando o contexto.
func (r *Registry) StartJanitor(ctx context.Context) {
	if r.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(r.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.Sweep()
			}
		}
	}()
}

// RegistryStats é um snapshot dos contadores de observabilidade do cache.
type RegistryStats struct {
	Buckets   int
	Hits      int64
	Misses    int64
	Evictions int64
}

func (r *Registry) Stats() RegistryStats {
	n := 0
	r.entries.Range(func(any, any) bool {
		n++
		return true
	})
	return RegistryStats{
		Buckets:   n,
		Hits:      r.hits.Load(),
		Misses:    r.misses.Load(),
		Evictions: r.evictions.Load(),
	}
}
