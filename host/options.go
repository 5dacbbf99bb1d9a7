package host

import (
	"fmt"
	"time"

	"github.com/arloliu/go-flashagent/logger"
)

// DefaultTimeout bounds each command round trip.
const DefaultTimeout = 3 * time.Second

// Option is a functional option for configuring a Client.
type Option interface {
	apply(*Client) error
}

type optFunc func(*Client) error

func (f optFunc) apply(c *Client) error { return f(c) }

// WithTimeout sets the per-command response timeout. Zero waits forever
// unless the context carries a deadline.
func WithTimeout(d time.Duration) Option {
	return optFunc(func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("host: timeout %v is negative", d)
		}
		c.timeout = d

		return nil
	})
}

// WithLogger sets the logger. The default is the package default logger.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(c *Client) error {
		if l == nil {
			return fmt.Errorf("host: logger is nil")
		}
		c.logger = l

		return nil
	})
}
