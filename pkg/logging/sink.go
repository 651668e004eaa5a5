package logging

import (
	"sort"

	"go.uber.org/zap"
)

// Log line levels, lowest is most severe.
const (
	LevelError = 0
	LevelInfo  = 1
	LevelDebug = 2
)

// LogLine is one diagnostic record emitted by the automation core. The core
// never decides formatting or destination; a Sink does.
type LogLine struct {
	Category  string
	Message   string
	Level     int
	Auxiliary map[string]any
}

// Sink receives LogLines.
type Sink interface {
	Log(line LogLine)
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(line LogLine)

// Log calls f(line).
func (f SinkFunc) Log(line LogLine) { f(line) }

// NopSink discards every line.
var NopSink Sink = SinkFunc(func(LogLine) {})

// Log writes a LogLine through the logger. Level 0 maps to error, 1 to info
// and anything higher to debug. Auxiliary keys are emitted in sorted order.
func (l *Logger) Log(line LogLine) {
	fields := make([]interface{}, 0, 2+2*len(line.Auxiliary))
	if line.Category != "" {
		fields = append(fields, zap.String("category", line.Category))
	}

	keys := make([]string, 0, len(line.Auxiliary))
	for k := range line.Auxiliary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, line.Auxiliary[k]))
	}

	switch {
	case line.Level <= LevelError:
		l.zl.Errorw(line.Message, fields...)
	case line.Level == LevelInfo:
		l.zl.Infow(line.Message, fields...)
	default:
		l.zl.Debugw(line.Message, fields...)
	}
}

// OrNop returns s, or NopSink when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return NopSink
	}
	return s
}
