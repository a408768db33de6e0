package log

import (
	"fmt"
	"maps"
	"time"

	"github.com/benbjohnson/clock"
)

var _ Interface = (*Logger)(nil)

const scopeKey = "scope"

// Entry is a single log record handed to a Sink.
type Entry struct {
	Level      Level             `json:"level"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Message    string            `json:"message"`
	Time       time.Time         `json:"time"`
	Error      error             `json:"-"`
}

// Logger is the concrete logger.
type Logger struct {
	level      Level
	attributes map[string]string
	sink       Sink
	clock      clock.Clock
}

// New returns a new logger.
func New(level Level, sink Sink) *Logger {
	if level == Default {
		level = Info
	}
	return &Logger{
		level:      level,
		attributes: map[string]string{},
		sink:       sink,
		clock:      clock.New(),
	}
}

// Scope returns a sub-logger with the scope attribute set.
func (l Logger) Scope(scope string) *Logger {
	return l.Attrs(map[string]string{scopeKey: scope})
}

// Attrs returns a sub-logger with the given attributes merged in.
func (l Logger) Attrs(attributes map[string]string) *Logger {
	attr := make(map[string]string, len(l.attributes)+len(attributes))
	maps.Copy(attr, l.attributes)
	maps.Copy(attr, attributes)
	l.attributes = attr
	return &l
}

// Level returns a copy of the logger that emits at level and above.
func (l Logger) Level(level Level) *Logger {
	l.level = level
	return &l
}

func (l Logger) GetLevel() Level { return l.level }

func (l Logger) Log(entry Entry) {
	if entry.Level < l.level {
		return
	}
	if entry.Time.IsZero() {
		entry.Time = l.clock.Now().UTC()
	}
	if len(l.attributes) > 0 {
		attrs := make(map[string]string, len(l.attributes)+len(entry.Attributes))
		maps.Copy(attrs, l.attributes)
		maps.Copy(attrs, entry.Attributes)
		entry.Attributes = attrs
	}
	if err := l.sink.Log(entry); err != nil {
		fmt.Printf("failed to log entry: %v\n", err)
	}
}

func (l Logger) Logf(level Level, format string, args ...interface{}) {
	l.Log(Entry{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l Logger) Tracef(format string, args ...interface{}) {
	l.Log(Entry{Level: Trace, Message: fmt.Sprintf(format, args...)})
}

func (l Logger) Debugf(format string, args ...interface{}) {
	l.Log(Entry{Level: Debug, Message: fmt.Sprintf(format, args...)})
}

func (l Logger) Infof(format string, args ...interface{}) {
	l.Log(Entry{Level: Info, Message: fmt.Sprintf(format, args...)})
}

func (l Logger) Warnf(format string, args ...interface{}) {
	l.Log(Entry{Level: Warn, Message: fmt.Sprintf(format, args...)})
}

func (l Logger) Errorf(err error, format string, args ...interface{}) {
	if err == nil {
		return
	}
	l.Log(Entry{Level: Error, Message: fmt.Sprintf(format, args...) + ": " + err.Error(), Error: err})
}
