package cleanup

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCleanupService is a mock implementation of CleanupService
type MockCleanupService struct {
	mock.Mock
}

// NewMockCleanupService creates a new MockCleanupService
func NewMockCleanupService() *MockCleanupService {
	return &MockCleanupService{}
}

func (m *MockCleanupService) CleanupStaleTempFiles(ctx context.Context, dir string, olderThan time.Time) (int, error) {
	args := m.Called(ctx, dir, olderThan)
	return args.Int(0), args.Error(1)
}
