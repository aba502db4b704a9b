// Package application junta as regras que ficam entre o store e o HTTP: o piso de
// RetryAfter quando o limiter bloqueia sem prazo e o timeout de aquisição de vagas.
//
// Depende só de domain; quem traduz Decision para status e headers é o pacote ratelimit.
package application
