package dispatch

import (
	"io"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-flashagent/flash"
	"github.com/arloliu/go-flashagent/flashinfo"
	"github.com/arloliu/go-flashagent/logger"
)

func quietLogger() logger.Logger {
	return logger.NewSlogWriter(io.Discard, logger.ErrorLevel, false, false)
}

// newSimDispatcher returns a dispatcher over a fresh simulator with the
// reference FlashInfo provisioned at its default base.
func newSimDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *flash.Simulator) {
	t.Helper()

	sim := flash.NewSimulator()
	require.NoError(t, flashinfo.Provision(sim, flashinfo.DefaultBase, flashinfo.Reference()))
	store, err := flashinfo.Load(sim, flashinfo.DefaultBase)
	require.NoError(t, err)

	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	d, err := New(sim, store, opts...)
	require.NoError(t, err)

	return d, sim
}

// newMockDispatcher returns a dispatcher over a mock driver whose pages
// are all ReadWrite.
func newMockDispatcher(t *testing.T) (*Dispatcher, *flash.MockDriver) {
	t.Helper()

	drv := flash.NewMockDriver()
	drv.On("ProtectionOf", mock.Anything).Return(flash.ReadWrite).Maybe()

	d, err := New(drv, flashinfo.NewStore(flashinfo.Reference()), WithLogger(quietLogger()))
	require.NoError(t, err)

	return d, drv
}
