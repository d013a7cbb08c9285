package session

import (
	"context"
	"simplefilehost/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock implementation of SessionRunner
type MockRunner struct {
	mock.Mock
}

// NewMockRunner creates a new MockRunner
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

func (m *MockRunner) Run(ctx context.Context, cfg domain.SessionConfig) (domain.SessionState, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(domain.SessionState), args.Error(1)
}

// MockStatus is a mock implementation of SessionStatus
type MockStatus struct {
	mock.Mock
}

// NewMockStatus creates a new MockStatus
func NewMockStatus() *MockStatus {
	return &MockStatus{}
}

func (m *MockStatus) Current() (domain.SessionSnapshot, bool) {
	args := m.Called()
	return args.Get(0).(domain.SessionSnapshot), args.Bool(1)
}
