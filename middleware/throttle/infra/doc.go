// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - TokenBucket: janela deslizante de admissões para uma única chave
//   - Registry: cache concorrente chave → bucket com expulsão por inatividade
//   - Semaphore: semáforo simples para limite de concorrência
//   - MemoryStatsStore / RedisStatsStore / PrometheusStatsStore: contadores
//     de decisão
package infra
