package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLog_String(t *testing.T) {
	entry := Log{
		Timestamp:  time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		Caller:     "service/qr.go:42",
		LoggerName: "main.qr",
		Level:      zapcore.ErrorLevel,
		Message:    "sink failed",
	}
	assert.Equal(t, "2024-05-01 12:30:00 [ERROR] main.qr: sink failed (service/qr.go:42)", entry.String())
}
