package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes GORM output through zap
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger creates a GORM logger; queries slower than slow are logged as warnings
func NewGormLogger(l *zap.Logger, level gormlogger.LogLevel, slow time.Duration) *GormLogger {
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return &GormLogger{logger: l.Named("gorm"), level: level, slowThreshold: slow}
}

// LogMode implements gormlogger.Interface
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (g *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Info {
		Enrich(ctx, g.logger).Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (g *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Warn {
		Enrich(ctx, g.logger).Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (g *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Error {
		Enrich(ctx, g.logger).Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	l := Enrich(ctx, g.logger).With(
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	)

	switch {
	case err != nil && g.level >= gormlogger.Error:
		if errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.Error("SQL error", zap.Error(err))
	case elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		l.Warn("Slow SQL", zap.Duration("threshold", g.slowThreshold))
	case g.level >= gormlogger.Info:
		l.Debug("SQL query")
	}
}

// MapGormLogLevel maps an application log level to a GORM level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
