package whatsapp

import (
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
)

type zapLogger struct {
	sugar *zap.SugaredLogger
	base  *zap.Logger
}

// NewLogger adapts a zap logger to the whatsmeow logging interface.
func NewLogger(logger *zap.Logger) waLog.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{sugar: logger.Sugar(), base: logger}
}

func (l *zapLogger) Warnf(msg string, args ...any)  { l.sugar.Warnf(msg, args...) }
func (l *zapLogger) Errorf(msg string, args ...any) { l.sugar.Errorf(msg, args...) }
func (l *zapLogger) Infof(msg string, args ...any)  { l.sugar.Infof(msg, args...) }
func (l *zapLogger) Debugf(msg string, args ...any) { l.sugar.Debugf(msg, args...) }

func (l *zapLogger) Sub(module string) waLog.Logger {
	return NewLogger(l.base.Named(module))
}
