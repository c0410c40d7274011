package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/johnquangdev/shot-analyzer/pkg/config"
)

// New builds the process logger: JSON in production, console otherwise
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg != nil && cfg.IsProduction() {
		return zap.NewProduction()
	}

	zc := zap.NewDevelopmentConfig()
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zc.Build()
}
