package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.input))
		})
	}
}

func TestGormLoggerLogMode(t *testing.T) {
	base := NewGormLogger(zap.NewNop(), gormlogger.Info)
	changed := base.LogMode(gormlogger.Silent)

	assert.Equal(t, gormlogger.Info, base.logLevel)
	assert.Equal(t, gormlogger.Silent, changed.(*GormLogger).logLevel)
}

func TestGormLoggerTrace(t *testing.T) {
	l := NewGormLogger(zap.NewNop(), gormlogger.Info)
	ctx := context.Background()

	// None of these should panic regardless of level or error.
	l.Trace(ctx, time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	l.Trace(ctx, time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT pg_sleep(1)", 0
	}, nil)

	l.Trace(ctx, time.Now(), func() (string, int64) {
		return "SELECT * FROM missing", 0
	}, errors.New("relation does not exist"))

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(ctx, time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
}
