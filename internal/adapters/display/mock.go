package display

import "github.com/stretchr/testify/mock"

type MockDisplay struct {
	mock.Mock
}

func NewMockDisplay() *MockDisplay {
	return &MockDisplay{}
}

func (m *MockDisplay) ShowURL(url string) {
	m.Called(url)
}
