package transport

import (
	"fmt"
	"time"
)

const (
	// DefaultPollTimeout bounds how long TryReceive waits for a byte.
	DefaultPollTimeout = 10 * time.Millisecond
	// DefaultBaudRate is the serial line rate of the bootloader.
	DefaultBaudRate = 115200

	MinPollTimeout = time.Millisecond
	MaxPollTimeout = time.Second
)

type options struct {
	pollTimeout  time.Duration
	writeTimeout time.Duration
	baudRate     int
}

func defaultOptions() options {
	return options{
		pollTimeout: DefaultPollTimeout,
		baudRate:    DefaultBaudRate,
	}
}

// Option is a functional option for configuring a transport.
type Option interface {
	apply(*options) error
}

type optFunc func(*options) error

func (f optFunc) apply(o *options) error { return f(o) }

func applyOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt.apply(&o); err != nil {
			return o, err
		}
	}

	return o, nil
}

// WithPollTimeout sets how long TryReceive waits for a byte.
func WithPollTimeout(d time.Duration) Option {
	return optFunc(func(o *options) error {
		if d < MinPollTimeout || d > MaxPollTimeout {
			return fmt.Errorf("transport: poll timeout %v out of range [%v, %v]", d, MinPollTimeout, MaxPollTimeout)
		}
		o.pollTimeout = d

		return nil
	})
}

// WithWriteTimeout bounds how long Send may block on a Conn. Zero, the
// default, blocks until the peer accepts the byte.
func WithWriteTimeout(d time.Duration) Option {
	return optFunc(func(o *options) error {
		if d < 0 {
			return fmt.Errorf("transport: write timeout %v is negative", d)
		}
		o.writeTimeout = d

		return nil
	})
}

// WithBaudRate sets the serial line rate.
func WithBaudRate(baud int) Option {
	return optFunc(func(o *options) error {
		if baud <= 0 {
			return fmt.Errorf("transport: invalid baud rate %d", baud)
		}
		o.baudRate = baud

		return nil
	})
}
