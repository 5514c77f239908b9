package types

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named sugared logger.
type Logger struct {
	*zap.SugaredLogger
	LogsPath string
	Name     string
}

// Log is a single entry passed to a LogHook.
type Log struct {
	Timestamp  time.Time
	Caller     string
	LoggerName string
	Level      zapcore.Level
	Message    string
}

// String renders the entry as a single plain text line.
func (l Log) String() string {
	return fmt.Sprintf("%s [%s] %s: %s (%s)",
		l.Timestamp.Format("2006-01-02 15:04:05"),
		l.Level.CapitalString(),
		l.LoggerName,
		l.Message,
		l.Caller,
	)
}

// LogHook is called for each log entry.
type LogHook func(log Log)
