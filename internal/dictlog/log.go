// Package dictlog provides leveled logging for the dictionary core.
//
// It mirrors the teacher's apoc/log package: a package-level level gate
// sitting on top of the standard library's log.Logger, with a field bag
// for structured context instead of a full logging framework.
package dictlog

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
)

// Level is a logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLevel = LevelInfo
	logger       = log.New(os.Stdout, "", log.LstdFlags)
)

// SetLevel changes the minimum level that is actually logged.
func SetLevel(l Level) { currentLevel = l }

// SetOutput redirects the underlying logger, mainly for tests.
func SetOutput(w interface{ Write([]byte) (int, error) }) {
	logger = log.New(w, "", log.LstdFlags)
}

// Debug logs at debug level.
func Debug(msg string, fields map[string]any) { logAt(LevelDebug, "DEBUG", msg, fields) }

// Info logs at info level.
func Info(msg string, fields map[string]any) { logAt(LevelInfo, "INFO", msg, fields) }

// Warn logs at warn level.
func Warn(msg string, fields map[string]any) { logAt(LevelWarn, "WARN", msg, fields) }

// Error logs at error level.
func Error(msg string, fields map[string]any) { logAt(LevelError, "ERROR", msg, fields) }

func logAt(l Level, tag, msg string, fields map[string]any) {
	if currentLevel > l {
		return
	}
	line := fmt.Sprintf("%s: %s", tag, msg)
	if len(fields) > 0 {
		line += " " + formatFields(fields)
	}
	logger.Println(line)
}

// formatFields renders a field bag deterministically (keys sorted) so
// that log lines are diffable in tests.
func formatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}
