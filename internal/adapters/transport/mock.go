package transport

import (
	"context"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"

	"github.com/stretchr/testify/mock"
)

type MockServerFactory struct {
	mock.Mock
}

func NewMockServerFactory() *MockServerFactory {
	return &MockServerFactory{}
}

func (m *MockServerFactory) NewServer(cfg domain.SessionConfig, signal port.CompletionSignal) port.FileServer {
	args := m.Called(cfg, signal)
	return args.Get(0).(port.FileServer)
}

type MockFileServer struct {
	mock.Mock
}

func NewMockFileServer() *MockFileServer {
	return &MockFileServer{}
}

func (m *MockFileServer) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFileServer) Stop() {
	m.Called()
}

func (m *MockFileServer) URL() string {
	args := m.Called()
	return args.String(0)
}
