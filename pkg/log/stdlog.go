package log

import (
	stdlog "log"
	"strings"
)

// stdLogWriter adapts a Logger to the io.Writer the standard library's log
// package writes to. Each Write is one log line.
type stdLogWriter struct {
	logger Logger
}

func (w *stdLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		w.logger.Info(msg)
	}
	return len(p), nil
}

// RedirectStdLog routes standard-library log output through logger at info
// level. Flags are cleared so lines are not double-timestamped.
func RedirectStdLog(logger Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(&stdLogWriter{logger: logger})
}
