package repository

import (
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithNowFunc overrides the clock gorm uses for created_at/updated_at.
func WithNowFunc(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGormLogLevel sets gorm's SQL logging level. Silent by default.
func WithGormLogLevel(level gormlogger.LogLevel) Option {
	return func(s *SQLiteStore) {
		s.logLevel = level
	}
}
