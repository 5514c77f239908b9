package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Badsnus/qrstudio/pkg/logger/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log *types.Logger

	hookMu  sync.RWMutex
	logHook types.LogHook
)

// Config represents configuration options for logger initialization
type Config struct {
	Debug        bool           // Enable debug logging
	TimeLocation *time.Location // Time zone of the timestamps (default: UTC)
	LogToFile    bool           // Enable logging to a file
	LogsDir      string         // Directory for log files, relative to the working directory unless absolute
}

// SetLogHook sets a hook function that will be called for each log entry
func SetLogHook(hook types.LogHook) {
	hookMu.Lock()
	logHook = hook
	hookMu.Unlock()
	if Log != nil {
		Log.Debug("Log hook set")
	}
}

func callHook(entry zapcore.Entry) error {
	hookMu.RLock()
	hook := logHook
	hookMu.RUnlock()
	if hook != nil {
		hook(types.Log{
			Timestamp:  entry.Time,
			Caller:     entry.Caller.String(),
			LoggerName: entry.LoggerName,
			Level:      entry.Level,
			Message:    entry.Message,
		})
	}
	return nil
}

// Init is a function to initialize logger with extended configuration
func Init(config Config) error {
	var l types.Logger
	l.Name = "main"

	switch {
	case config.LogsDir == "":
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		l.LogsPath = wd
	case filepath.IsAbs(config.LogsDir):
		l.LogsPath = config.LogsDir
	default:
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		l.LogsPath = filepath.Join(wd, config.LogsDir)
	}

	location := config.TimeLocation
	if location == nil {
		location = time.UTC
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "timestamp",
		NameKey:        "logger",
		CallerKey:      "caller",
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.In(location).Format("2006-01-02 15:04:05"))
		},
	}

	level := zapcore.InfoLevel
	if config.Debug {
		level = zapcore.DebugLevel
	}

	// Console encoder with colors
	consoleEncoderConfig := encoderConfig
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderConfig)

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level),
	}

	if config.LogToFile {
		if err := os.MkdirAll(l.LogsPath, os.ModePerm); err != nil {
			return err
		}

		// File encoder without colors
		fileEncoderConfig := encoderConfig
		fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		fileEncoder := zapcore.NewJSONEncoder(fileEncoderConfig)

		mainLogPath := filepath.Join(l.LogsPath, fmt.Sprintf("%s.log", time.Now().In(location).Format("2006-01-02_15-04")))
		fileWriter, errOpenFile := os.OpenFile(mainLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if errOpenFile != nil {
			return errOpenFile
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(fileWriter), level))
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.Hooks(callHook))

	l.SugaredLogger = log.Named(l.Name).Sugar()
	Log = &l

	return nil
}

// Named returns a new logger with the specified name ("http", "bot", etc.)
func Named(name string) (*types.Logger, error) {
	if Log == nil {
		return nil, fmt.Errorf("logger is not initialized")
	}
	return &types.Logger{
		SugaredLogger: Log.SugaredLogger.Named(name),
		LogsPath:      Log.LogsPath,
		Name:          name,
	}, nil
}

// Nop returns a logger that discards everything.
func Nop() *types.Logger {
	return &types.Logger{
		SugaredLogger: zap.NewNop().Sugar(),
		Name:          "nop",
	}
}

// Location parses an IANA zone name or a fixed "GMT+3" style offset.
func Location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	var hours int
	if _, err := fmt.Sscanf(name, "GMT%d", &hours); err == nil {
		return time.FixedZone(name, hours*60*60), nil
	}
	return time.LoadLocation(name)
}
