package domain

// Camada de domínio do throttling.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// Key identifica a partição cujo orçamento o request consome.
// Chaves iguais dividem o mesmo bucket; a chave vazia é válida e
// representa "sem particionamento" (um único bucket global).
type Key string

// Clock é a fonte de tempo injetável. Toda decisão de tempo (envelhecimento
// do bucket, expulsão do registry) passa por aqui, para que os testes possam
// controlar o relógio em vez de dormir.
type Clock func() time.Time

// Decision é o resultado de uma sondagem do bucket.
//
// RetryAfter só tem significado quando Allowed=false: é o tempo mínimo até
// a próxima sondagem poder ser admitida, sempre > 0 numa rejeição.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Bucket representa o orçamento de uma única partição.
//
// Probe nunca falha: ou admite e contabiliza a chamada, ou rejeita
// informando quanto esperar. Deve ser seguro sob chamadas concorrentes.
type Bucket interface {
	Probe() Decision
}

// BucketStore resolve o bucket de uma chave, criando-o na primeira vez.
// A implementação pode manter cache, TTL, etc.
type BucketStore interface {
	Resolve(Key) Bucket
}
