package relay

import (
	"github.com/pion/logging"
	"go.uber.org/zap"
)

// pionLogFactory routes pion's internal logging through the process
// logger instead of pion's default stderr writer.
type pionLogFactory struct {
	log *zap.Logger
}

func (f *pionLogFactory) NewLogger(scope string) logging.LeveledLogger {
	return &pionLogger{s: f.log.Named(scope).Sugar()}
}

type pionLogger struct {
	s *zap.SugaredLogger
}

func (l *pionLogger) Trace(msg string)                  { l.s.Debug(msg) }
func (l *pionLogger) Tracef(format string, args ...any) { l.s.Debugf(format, args...) }
func (l *pionLogger) Debug(msg string)                  { l.s.Debug(msg) }
func (l *pionLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l *pionLogger) Info(msg string)                   { l.s.Info(msg) }
func (l *pionLogger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l *pionLogger) Warn(msg string)                   { l.s.Warn(msg) }
func (l *pionLogger) Warnf(format string, args ...any)  { l.s.Warnf(format, args...) }
func (l *pionLogger) Error(msg string)                  { l.s.Error(msg) }
func (l *pionLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
