// Package app liga as dependências do gateway com google/wire.
//
// wire.go descreve o grafo; wire_gen.go é a saída do wire (rodar `wire ./app`
// depois de mudar os providers).
package app

import (
	"net/http"

	"content-gateway/config"

	"go.uber.org/zap"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger
	Server *http.Server
}
