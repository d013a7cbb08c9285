package token

import "github.com/stretchr/testify/mock"

type MockGenerator struct {
	mock.Mock
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Token(n int) (string, error) {
	args := m.Called(n)
	return args.String(0), args.Error(1)
}
