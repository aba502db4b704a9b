// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa, token bucket, semáforo, estatísticas)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo no gateway:
//
//  1. Extrai a chave do cliente (header/XFF/IP, ou "anonymous")
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 com Retry-After e corpo JSON
//     {"error":"Rate limit exceeded","retryAfter":N}; concorrência esgotada vira 503
//  4. Se permitido, chama o próximo handler
//
// Variáveis de ambiente (ver pacote config) escolhem o algoritmo e os limites:
// RATE_ALGORITHM, RATE_MAX_REQUESTS, RATE_WINDOW, RATE_RPS, RATE_BURST, CONCURRENCY_MAX.
package ratelimit
