// Package infra contém implementações concretas para os contratos do pacote domain.
//
//   - WindowStore: janela fixa por chave (algoritmo padrão do gateway)
//   - TokenBucketStore: token bucket por chave usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para limite de concorrência
//   - MemoryStatsStore / RedisStatsStore: estatísticas das decisões (TeeStats junta os dois)
package infra
