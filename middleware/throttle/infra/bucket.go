package infra

import (
	"fmt"
	"sync"
	"time"

	"throttling-gateway/middleware/throttle/domain"
)

// TokenBucket admite no máximo `capacity` chamadas em qualquer intervalo
// móvel de duração `window` (janela deslizante, não alinhada a fronteiras
// fixas — evita a rajada dupla na virada de janela dos contadores fixos).
//
// A implementação guarda os instantes das últimas `capacity` admissões em um
// ring buffer: uma sondagem é admitida enquanto houver vaga no ring ou a
// admissão mais antiga já tiver saído da janela. Quando rejeita, o tempo de
// espera é exatamente o que falta para a admissão mais antiga envelhecer.
type TokenBucket struct {
	mu     sync.Mutex
	now    domain.Clock
	window time.Duration

	// ring das últimas admissões: stamps[head] é a mais antiga,
	// count quantas posições estão ocupadas.
	stamps []time.Time
	head   int
	count  int
}

// NewTokenBucket valida os parâmetros na construção; Probe nunca falha depois.
func NewTokenBucket(now domain.Clock, capacity int, window time.Duration) (*TokenBucket, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("throttle: capacity must be > 0, got %d", capacity)
	}
	if window <= 0 {
		return nil, fmt.Errorf("throttle: window must be > 0, got %s", window)
	}
	if now == nil {
		now = time.Now
	}
	return &TokenBucket{
		now:    now,
		window: window,
		stamps: make([]time.Time, capacity),
	}, nil
}

// Probe implementa domain.Bucket.
//
// Uma espera calculada <= 0 significa que a admissão mais antiga já saiu da
// janela: nesse caso a vaga é liberada e a chamada é admitida, nunca
// rejeitada com espera zero.
func (b *TokenBucket) Probe() domain.Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if b.count == len(b.stamps) {
		oldest := b.stamps[b.head]
		if wait := b.window - now.Sub(oldest); wait > 0 {
			return domain.Decision{Allowed: false, RetryAfter: wait}
		}
		b.head = (b.head + 1) % len(b.stamps)
		b.count--
	}

	b.stamps[(b.head+b.count)%len(b.stamps)] = now
	b.count++
	return domain.Decision{Allowed: true}
}

func (b *TokenBucket) Capacity() int { return len(b.stamps) }

func (b *TokenBucket) Window() time.Duration { return b.window }
