package hal

import (
	"github.com/stretchr/testify/mock"
)

// fails if the mocks do not implement the interfaces
var (
	_ Transport = &TransportMock{}
	_ ResetLine = &ResetLineMock{}
)

// TransportMock implements a mock for the Transport interface
type TransportMock struct {
	mock.Mock
}

func (m *TransportMock) Transfer(b byte) (byte, error) {
	args := m.Called(b)
	return args.Get(0).(byte), args.Error(1)
}

func (m *TransportMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ResetLineMock implements a mock for the ResetLine interface
type ResetLineMock struct {
	mock.Mock
}

func (m *ResetLineMock) Reset() error {
	args := m.Called()
	return args.Error(0)
}

func (m *ResetLineMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
