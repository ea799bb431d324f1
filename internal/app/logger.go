package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger создаёт логгер: JSON в production, цветной вывод в остальных окружениях
func NewLogger(env string) *zap.Logger {
	var config zap.Config

	switch env {
	case "production":
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "test":
		return zap.NewNop()
	default:
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.OutputPaths = []string{"stdout"}
	config.InitialFields = map[string]interface{}{"service": "colloqui"}

	logger, err := config.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	return logger
}
