package domain

import (
	"context"
	"time"
)

// Outcome classifica o desfecho de um request no middleware de throttling.
//
// KeyError é deliberadamente separado de Throttled: falha ao computar a
// chave de partição é um problema de configuração/avaliação, não uma
// decisão de limitação, e precisa ser distinguível em logs e métricas.
type Outcome string

const (
	OutcomeAllowed   Outcome = "allowed"
	OutcomeThrottled Outcome = "throttled"
	OutcomeKeyError  Outcome = "key_error"
)

// StatsEvent representa um evento de decisão do throttling.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings
// genéricas e podem ser usadas para web, gRPC, etc.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key/Path sem controle
// pode explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Key     Key
	Outcome Outcome

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do throttling.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O middleware deve tratar erro como best-effort (não derrubar request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
