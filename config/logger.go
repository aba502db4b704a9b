package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger monta o zap.Logger a partir de LogConfig.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc.Level = level

	return zc.Build()
}
