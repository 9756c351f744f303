// internal/cmdutil/log.go
package cmdutil

import (
	"fmt"
	"io"
)

// Level orders log verbosity; messages above the logger's level are dropped.
type Level int

const (
	LevelQuiet Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger writes prefix-tagged lines to dst. A nil *Logger discards everything.
type Logger struct {
	dst   io.Writer
	level Level
}

func NewLogger(dst io.Writer, level Level) *Logger { return &Logger{dst: dst, level: level} }

func (l *Logger) logf(lv Level, tag, format string, a ...any) {
	if l == nil || l.dst == nil || lv > l.level {
		return
	}
	_, _ = fmt.Fprintf(l.dst, tag+": "+format+"\n", a...)
}

func (l *Logger) Warnf(format string, a ...any)  { l.logf(LevelWarn, "WARN", format, a...) }
func (l *Logger) Infof(format string, a ...any)  { l.logf(LevelInfo, "INFO", format, a...) }
func (l *Logger) Debugf(format string, a ...any) { l.logf(LevelDebug, "DEBUG", format, a...) }
