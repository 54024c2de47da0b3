package application

import (
	"throttling-gateway/middleware/throttle/domain"
)

// Service concentra a regra de aplicação do throttling.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas resolve o bucket da
// chave e repassa a decisão da sondagem. O RetryAfter vem do próprio bucket:
// é o tempo exato até a admissão mais antiga sair da janela.
type Service struct {
	Buckets domain.BucketStore
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Buckets == nil {
		return domain.Decision{Allowed: true}
	}

	b := s.Buckets.Resolve(key)
	if b == nil {
		return domain.Decision{Allowed: true}
	}
	return b.Probe()
}
