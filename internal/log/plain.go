package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

var colours = map[Level]string{
	Trace: "\x1b[90m", // Dark gray
	Debug: "\x1b[34m", // Blue
	Info:  "\x1b[37m", // White
	Warn:  "\x1b[33m", // Yellow
	Error: "\x1b[31m", // Red
}

var _ Sink = (*plainSink)(nil)

func newPlainSink(w io.Writer, logTime bool) *plainSink {
	var isaTTY bool
	if f, ok := w.(*os.File); ok {
		isaTTY = isatty.IsTerminal(f.Fd())
	}
	return &plainSink{
		isaTTY:  isaTTY,
		w:       w,
		logTime: logTime,
	}
}

type plainSink struct {
	isaTTY  bool
	w       io.Writer
	logTime bool
}

func (t *plainSink) Log(entry Entry) error {
	var prefix string
	if t.logTime {
		prefix = entry.Time.Format(time.TimeOnly) + " "
	}
	if scope, ok := entry.Attributes[scopeKey]; ok {
		prefix += entry.Level.String() + ":" + scope + ": "
	} else {
		prefix += entry.Level.String() + ": "
	}
	var err error
	if t.isaTTY {
		_, err = fmt.Fprintf(t.w, "%s%s%s\x1b[0m\n", colours[entry.Level], prefix, entry.Message)
	} else {
		_, err = fmt.Fprintf(t.w, "%s%s\n", prefix, entry.Message)
	}
	return err
}
