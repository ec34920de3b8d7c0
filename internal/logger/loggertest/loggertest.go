// Package loggertest provides a logger for package tests.
package loggertest

import (
	"testing"

	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"go.uber.org/zap/zaptest"
)

// New routes log output through testing.TB so it only shows for failing tests.
func New(t testing.TB) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}
