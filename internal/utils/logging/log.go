// Package logging provides leveled console logging with a structured file mirror.
package logging

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"vidarr/internal/domain/consts"

	"github.com/rs/zerolog"
)

var (
	// Level controls debug verbosity. -1 until SetupLogging runs.
	Level int = -1

	mu       sync.Mutex
	loggable bool
	fileLog  zerolog.Logger
)

// Regular expression to match ANSI escape codes
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// SetupLogging opens the log file and initializes the structured file mirror.
func SetupLogging(logFilePath string, level int) error {
	f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q: %w", logFilePath, err)
	}

	mu.Lock()
	defer mu.Unlock()

	fileLog = zerolog.New(f).With().Timestamp().Logger()
	loggable = true
	Level = level

	fileLog.Info().Msg("=========== session start ===========")
	return nil
}

// writeLog mirrors a console message into the structured log file.
func writeLog(lvl zerolog.Level, msg string) {
	if !loggable {
		return
	}
	fileLog.WithLevel(lvl).Msg(stripAnsiCodes(msg))
}

// stripAnsiCodes removes ANSI escape codes from a string
func stripAnsiCodes(input string) string {
	return ansiEscape.ReplaceAllString(input, "")
}

// format applies printf args only when present.
func format(formatStr string, args ...any) string {
	if len(args) != 0 {
		return fmt.Sprintf(formatStr, args...)
	}
	return formatStr
}

// I prints an info message.
func I(formatStr string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	msg := consts.BlueInfo + format(formatStr, args...) + "\n"
	fmt.Print(msg)
	writeLog(zerolog.InfoLevel, format(formatStr, args...))
}

// S prints a success message.
func S(formatStr string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	msg := consts.GreenSuccess + format(formatStr, args...) + "\n"
	fmt.Print(msg)
	writeLog(zerolog.InfoLevel, format(formatStr, args...))
}

// W prints a warning message.
func W(formatStr string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	msg := consts.YellowWarn + format(formatStr, args...) + "\n"
	fmt.Print(msg)
	writeLog(zerolog.WarnLevel, format(formatStr, args...))
}

// E prints an error message with caller tags.
func E(formatStr string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	msg := consts.RedError + format(formatStr, args...) + callerTag() + "\n"
	fmt.Print(msg)
	writeLog(zerolog.ErrorLevel, format(formatStr, args...))
}

// D prints a debug message when the debug level is at or above l.
func D(l int, formatStr string, args ...any) {
	if l > Level {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	msg := consts.YellowDebug + format(formatStr, args...) + callerTag() + "\n"
	fmt.Print(msg)
	writeLog(zerolog.DebugLevel, format(formatStr, args...))
}

// P prints a plain message with no tag.
func P(formatStr string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	msg := format(formatStr, args...) + "\n"
	fmt.Print(msg)
	writeLog(zerolog.InfoLevel, format(formatStr, args...))
}
