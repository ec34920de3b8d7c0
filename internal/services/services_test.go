package services

import (
	"context"
	"testing"

	"github.com/justsurfingit/jobportal-admin/internal/database/dbtest"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/logger/loggertest"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockVerifier is a testify mock for captcha.Verifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	args := m.Called(ctx, token, remoteIP)
	return args.Bool(0), args.Error(1)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.NewSQLite(t)
}

func testLogger(t *testing.T) logger.Logger {
	return loggertest.New(t)
}
