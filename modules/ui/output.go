package ui

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

var (
	outputMutex sync.Mutex

	consoleLevel = LevelInfo
	Zerotime     bool
	starttime    = time.Now()

	// JSON copy of every message, off unless SetStructuredOutput is called
	structuredOutput = zerolog.Nop()

	// Until SetLogFile is called, console output is kept so it can be replayed into the file
	logfile       *os.File
	logfileinit   bool
	logfilebuffer *bytes.Buffer
	logfilelevel  = LevelInfo
)

var consolePrefixes = map[LogLevel]pterm.PrefixPrinter{
	LevelDebug: {
		MessageStyle: &pterm.ThemeDefault.DebugMessageStyle,
		Prefix:       pterm.Prefix{Style: &pterm.ThemeDefault.DebugPrefixStyle, Text: " DEBUG "},
	},
	LevelInfo: {
		MessageStyle: &pterm.ThemeDefault.InfoMessageStyle,
		Prefix:       pterm.Prefix{Style: &pterm.ThemeDefault.InfoPrefixStyle, Text: "INFORMA"},
	},
	LevelWarn: {
		MessageStyle: &pterm.ThemeDefault.WarningMessageStyle,
		Prefix:       pterm.Prefix{Style: &pterm.ThemeDefault.WarningPrefixStyle, Text: "WARNING"},
	},
	LevelError: pterm.Error,
}

func SetLoglevel(ll LogLevel) {
	outputMutex.Lock()
	consoleLevel = ll
	outputMutex.Unlock()
}

// SetStructuredOutput sends a JSON line per message to w, nil turns it off
func SetStructuredOutput(w io.Writer) {
	outputMutex.Lock()
	defer outputMutex.Unlock()
	if w == nil {
		structuredOutput = zerolog.Nop()
		return
	}
	structuredOutput = zerolog.New(w).With().Timestamp().Logger()
}

// SetLogFile starts writing messages at level ll or above to path, replaying what
// was logged before. An empty path just stops the buffering.
func SetLogFile(path string, ll LogLevel) error {
	outputMutex.Lock()
	defer outputMutex.Unlock()

	logfileinit = true
	if logfile != nil {
		logfile.Close()
		logfile = nil
	}
	if path == "" {
		logfilebuffer = nil
		return nil
	}

	os.MkdirAll(filepath.Dir(path), 0750)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open logfile %s: %w", path, err)
	}
	logfile = f
	logfilelevel = ll

	if logfilebuffer != nil {
		io.Copy(logfile, logfilebuffer)
		logfilebuffer = nil
	}
	return nil
}

func enabled(ll LogLevel) bool {
	outputMutex.Lock()
	defer outputMutex.Unlock()
	return ll >= consoleLevel || (logfile != nil && ll >= logfilelevel)
}

func timestamp() string {
	if Zerotime {
		elapsed := time.Since(starttime)
		return fmt.Sprintf("%02d:%02d:%02d.%03d", int(elapsed.Hours()), int(elapsed.Minutes())%60, int(elapsed.Seconds())%60, elapsed.Milliseconds()%1000)
	}
	return time.Now().Format("15:04:05.000")
}

func emit(l Logger, message string) {
	outputMutex.Lock()
	defer outputMutex.Unlock()

	l.structured(structuredOutput.WithLevel(l.level.zerolog()), message)

	ts := timestamp()
	line := ts + " " + l.level.String() + " " + message + l.suffix() + "\n"
	switch {
	case logfileinit && logfile != nil && l.level >= logfilelevel:
		io.WriteString(logfile, line)
	case !logfileinit && l.level >= consoleLevel:
		if logfilebuffer == nil {
			logfilebuffer = bytes.NewBuffer(nil)
		}
		logfilebuffer.WriteString(line)
	}

	if l.level >= consoleLevel {
		printer := consolePrefixes[l.level]
		text := printer.Sprint(message) + pterm.FgGray.Sprint(l.suffix())
		pterm.Fprintln(printer.Writer, pterm.DefaultBasicText.Sprint(ts+" ")+text)
	}
}
