package flash

import (
	"github.com/stretchr/testify/mock"
)

// MockDriver is a testify mock of Driver.
type MockDriver struct {
	mock.Mock
}

var _ Driver = (*MockDriver)(nil)

func NewMockDriver() *MockDriver {
	return &MockDriver{}
}

func (m *MockDriver) Read(addr uint32, length int) []byte {
	args := m.Called(addr, length)
	if data, ok := args.Get(0).([]byte); ok {
		return data
	}

	return nil
}

func (m *MockDriver) ProtectionOf(page int) ProtectMode {
	args := m.Called(page)
	return args.Get(0).(ProtectMode)
}

func (m *MockDriver) ErasePage(addr uint32) error {
	args := m.Called(addr)
	return args.Error(0)
}

func (m *MockDriver) ProgramWord(addr uint32, word uint32) error {
	args := m.Called(addr, word)
	return args.Error(0)
}
