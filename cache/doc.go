// Package cache implementa o cache em memória com TTL por entrada.
//
// Duas formas de expiração:
//
//   - preguiçosa: Get verifica o vencimento na hora da leitura (O(1)) e remove a entrada
//   - varredura: Sweep remove tudo que já venceu; Start agenda o Sweep em intervalo fixo
//
// A correção depende só da verificação preguiçosa. A varredura existe para limitar memória
// de chaves escritas uma vez e nunca mais lidas.
//
// O Store é construído uma vez no início do processo e injetado em quem precisa
// (memo, respcache). Não existe instância global.
package cache
