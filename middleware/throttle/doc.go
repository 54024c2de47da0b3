// Package throttle fornece adapters HTTP (net/http) para throttling por
// chave de partição e limite de requests em voo.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (token bucket de janela deslizante,
//     registry de buckets, semáforo), detalhes de infraestrutura
//   - throttle (este pacote): middlewares HTTP + extração de chave +
//     tradução para status/headers
//
// Fluxo no gateway:
//
//  1. Avalia a chave de partição do request (IP/header/global)
//  2. Falhou a avaliação? Responde 500 sem tocar no registry
//  3. Chama a camada application para sondar o bucket da chave
//  4. Se bloqueado, responde 429 com Retry-After em segundos inteiros
//     (arredondado para cima) ou 503 (limite de concorrência)
//  5. Se admitido, chama o próximo handler (ex: reverse proxy), sem
//     alterar o request
//
// O binário gateway (cmd/gateway) é configurado por um arquivo YAML
// declarativo; veja cmd/gateway/config.go.
package throttle
