package agent

import (
	"fmt"

	"github.com/arloliu/go-flashagent/flash"
	"github.com/arloliu/go-flashagent/flashinfo"
	"github.com/arloliu/go-flashagent/logger"
	"github.com/arloliu/go-flashagent/wire"
)

const (
	// DefaultTransportErrorLimit is the number of consecutive transport
	// failures after which Run gives up.
	DefaultTransportErrorLimit = 3

	// MaxIdentityLen is the largest identity the Info response can carry.
	MaxIdentityLen = wire.InfoFieldSize
)

// Config holds the agent configuration.
type Config struct {
	identity            string
	infoAddress         uint32
	transportErrorLimit int

	logger logger.Logger
}

// NewConfig creates an agent configuration.
//
// opts are functional options applied in order; see With* functions.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		infoAddress:         flashinfo.DefaultBase,
		transportErrorLimit: DefaultTransportErrorLimit,
		logger:              logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Identity returns the configured Info string. Empty means the agent derives
// it from the version of the FlashInfo record it boots from.
func (cfg *Config) Identity() string { return cfg.identity }

// InfoAddress returns the flash address of the FlashInfo record.
func (cfg *Config) InfoAddress() uint32 { return cfg.infoAddress }

// TransportErrorLimit returns the consecutive transport failure limit.
// Zero means Run never gives up on transport errors.
func (cfg *Config) TransportErrorLimit() int { return cfg.transportErrorLimit }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithLogger sets the logger. The default is the package default logger.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return fmt.Errorf("agent: logger is nil")
		}
		cfg.logger = l

		return nil
	})
}

// WithIdentity sets the string answered to Info. It must fit the Info
// response field of MaxIdentityLen bytes and be a JSON object whose
// "version" member New checks against the FlashInfo record. An empty
// identity restores the default, flashinfo.IdentityFor(record version).
func WithIdentity(identity string) Option {
	return optFunc(func(cfg *Config) error {
		if len(identity) > MaxIdentityLen {
			return fmt.Errorf("agent: identity of %d bytes exceeds %d", len(identity), MaxIdentityLen)
		}
		if identity != "" {
			if _, err := flashinfo.IdentityVersion(identity); err != nil {
				return fmt.Errorf("agent: %w", err)
			}
		}
		cfg.identity = identity

		return nil
	})
}

// WithInfoAddress sets the flash address the FlashInfo record is loaded from.
func WithInfoAddress(addr uint32) Option {
	return optFunc(func(cfg *Config) error {
		if !flash.InRange(addr, flashinfo.RecordSize) {
			return fmt.Errorf("agent: FlashInfo record at 0x%08X does not fit in flash", addr)
		}
		cfg.infoAddress = addr

		return nil
	})
}

// WithTransportErrorLimit sets how many consecutive transport failures Run
// tolerates. Zero disables the limit.
func WithTransportErrorLimit(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 0 {
			return fmt.Errorf("agent: transport error limit %d is negative", n)
		}
		cfg.transportErrorLimit = n

		return nil
	})
}
