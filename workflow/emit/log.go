package emit

import "go.uber.org/zap"

// LogEmitter writes events to a structured logger.
type LogEmitter struct {
	log *zap.Logger
}

// NewLogEmitter builds a LogEmitter on log.
func NewLogEmitter(log *zap.Logger) *LogEmitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogEmitter{log: log}
}

// Emit implements Emitter.
func (l *LogEmitter) Emit(event Event) {
	fields := []zap.Field{
		zap.String("run_id", event.RunID),
		zap.Int("step", event.Step),
	}
	if event.NodeID != "" {
		fields = append(fields, zap.String("node", event.NodeID))
	}
	for k, v := range event.Meta {
		fields = append(fields, zap.Any(k, v))
	}
	if _, failed := event.Meta["error"]; failed {
		l.log.Warn(event.Msg, fields...)
		return
	}
	l.log.Info(event.Msg, fields...)
}
