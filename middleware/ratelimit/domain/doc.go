// Package domain define contratos e tipos de domínio para rate limit e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas: a janela fixa,
// o token bucket e os stores de estatística ficam em infra.
package domain
