package ui

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelPanic
)

var logLevelNames = [...]string{"Trace", "Debug", "Info", "Warn", "Error", "Fatal", "Panic"}

func (ll LogLevel) String() string {
	if ll < 0 || int(ll) >= len(logLevelNames) {
		return fmt.Sprintf("LogLevel(%d)", ll)
	}
	return logLevelNames[ll]
}

// LogLevelString is case insensitive
func LogLevelString(s string) (LogLevel, error) {
	for i, name := range logLevelNames {
		if strings.EqualFold(name, s) {
			return LogLevel(i), nil
		}
	}
	return 0, fmt.Errorf("%s does not belong to LogLevel values", s)
}

func LogLevelStrings() []string {
	return append([]string(nil), logLevelNames[:]...)
}

func (ll LogLevel) zerolog() zerolog.Level {
	switch ll {
	case LevelTrace:
		return zerolog.TraceLevel
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	}
	return zerolog.PanicLevel
}
