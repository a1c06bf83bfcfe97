package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func init() {
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{
		Out:        colorable.NewColorableStdout(),
		TimeFormat: "15:04:05.000",
	})
}

type field struct {
	key   string
	value any
}

// Logger is one pending message at a level, optionally carrying context such as
// the bundle or file it concerns. Fields show up as key=value on the console and
// in the log file, and as JSON properties in structured output.
type Logger struct {
	level  LogLevel
	fields []field
}

func Debug() Logger { return Logger{level: LevelDebug} }
func Info() Logger  { return Logger{level: LevelInfo} }
func Warn() Logger  { return Logger{level: LevelWarn} }
func Error() Logger { return Logger{level: LevelError} }

func (l Logger) Str(key, value string) Logger {
	return l.Any(key, value)
}

func (l Logger) Any(key string, value any) Logger {
	fields := make([]field, len(l.fields), len(l.fields)+1)
	copy(fields, l.fields)
	l.fields = append(fields, field{key, value})
	return l
}

func (l Logger) Msgf(format string, args ...any) {
	if !enabled(l.level) {
		return
	}
	emit(l, fmt.Sprintf(format, args...))
}

func (l Logger) Msg(msg string) {
	if !enabled(l.level) {
		return
	}
	emit(l, msg)
}

func (l Logger) suffix() string {
	if len(l.fields) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, f := range l.fields {
		fmt.Fprintf(&sb, " %s=%v", f.key, f.value)
	}
	return sb.String()
}

func (l Logger) structured(e *zerolog.Event, message string) {
	for _, f := range l.fields {
		e = e.Interface(f.key, f.value)
	}
	e.Msg(message)
}
