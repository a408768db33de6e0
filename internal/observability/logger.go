package observability

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-logr/logr"

	"github.com/DarumaDocker/schedule-flows/internal/log"
)

type logSink struct {
	keyValues map[string]interface{}
	logger    *log.Logger
}

func NewOtelLogger(logger *log.Logger, level log.Level) logr.Logger {
	sink := &logSink{
		logger: logger.Scope("otel").Level(level),
	}
	return logr.New(sink)
}

var _ logr.LogSink = &logSink{}

func (l *logSink) Init(logr.RuntimeInfo) {}

func (l logSink) Enabled(level int) bool {
	return otelLevelToLevel(level) >= l.logger.GetLevel()
}

func (l logSink) Info(level int, msg string, kvs ...interface{}) {
	l.logger.Logf(otelLevelToLevel(level), "%s", l.format(msg, kvs))
}

func (l logSink) Error(err error, msg string, kvs ...interface{}) {
	l.logger.Errorf(err, "%s", l.format(msg, kvs))
}

func (l logSink) format(msg string, kvs []interface{}) string {
	var b strings.Builder
	b.WriteString(msg)
	for _, k := range slices.Sorted(maps.Keys(l.keyValues)) {
		fmt.Fprintf(&b, " %s=%+v", k, l.keyValues[k])
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		fmt.Fprintf(&b, " %s=%+v", kvs[i], kvs[i+1])
	}
	return b.String()
}

func (l logSink) WithName(name string) logr.LogSink {
	return &logSink{
		keyValues: l.keyValues,
		logger:    l.logger.Scope(name),
	}
}

func (l logSink) WithValues(kvs ...interface{}) logr.LogSink {
	newMap := make(map[string]interface{}, len(l.keyValues)+len(kvs)/2)
	for k, v := range l.keyValues {
		newMap[k] = v
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		newMap[fmt.Sprint(kvs[i])] = kvs[i+1]
	}
	return &logSink{
		keyValues: newMap,
		logger:    l.logger,
	}
}

// otel verbosity: 0 error, 1 warning, 4 info, 8 debug.
func otelLevelToLevel(level int) log.Level {
	switch level {
	case 4:
		return log.Info
	case 8:
		return log.Debug
	case 1:
		return log.Warn
	case 0:
		return log.Error
	default:
		return log.Trace
	}
}
