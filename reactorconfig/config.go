// Package reactorconfig loads runtime-wide tuning knobs for the reactor
// package: how long the slow-handler watchdog waits before it warns, the
// default mailbox sizing a host should fall back to when a caller does not
// pick one explicitly, and the log level. It generalizes the teacher's
// utils.Config/DefaultConfig pattern (a plain struct of tuning knobs plus a
// defaults constructor) from game-specific physics constants to actor
// runtime knobs, and adds file/env loading via spf13/viper since a runtime
// meant to be embedded in a host service should not require that host to
// hand-roll its own config plumbing.
package reactorconfig

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lguibr/reactor/reactor"
)

// Config holds the runtime-wide tunables for the reactor package. It is
// the thing a host loads once at startup and then threads into every
// reactor.New call via Options.
type Config struct {
	// WatchdogInterval is how often a still-running Receive call triggers
	// a "slow handler" warning log line. Zero disables the watchdog.
	WatchdogInterval time.Duration `mapstructure:"watchdog_interval"`

	// DefaultMailboxCapacity is the mailbox size reactor.New uses when a
	// caller does not have a specific backpressure requirement in mind.
	// Zero or negative means unbounded, matching reactor.New's own
	// convention.
	DefaultMailboxCapacity int `mapstructure:"default_mailbox_capacity"`

	// LogLevel controls the verbosity of the zap logger a host builds
	// from this config before passing it to reactor.WithLogger.
	LogLevel string `mapstructure:"log_level"`
}

// Default returns the Config a host gets if it loads nothing at all: a
// 10-second watchdog, an unbounded mailbox, and info-level logging. These
// mirror the originating implementation's own literal defaults.
func Default() Config {
	return Config{
		WatchdogInterval:       10 * time.Second,
		DefaultMailboxCapacity: 0,
		LogLevel:               "info",
	}
}

// Load reads Config from configPath (if non-empty) and from any
// REACTOR_-prefixed environment variables, falling back to Default for
// anything neither source sets. Environment variables take precedence
// over the file, matching viper's normal resolution order.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("reactor")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("watchdog_interval", d.WatchdogInterval)
	v.SetDefault("default_mailbox_capacity", d.DefaultMailboxCapacity)
	v.SetDefault("log_level", d.LogLevel)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reactorconfig: reading %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("reactorconfig: unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Options turns this Config into the reactor.Option slice every
// reactor.New call for this host should be given, wiring the watchdog
// interval and a logger built from LogLevel.
func (c Config) Options() ([]reactor.Option, error) {
	logger, err := c.BuildLogger()
	if err != nil {
		return nil, err
	}
	return []reactor.Option{
		reactor.WithLogger(logger),
		reactor.WithWatchdogInterval(c.WatchdogInterval),
	}, nil
}

// BuildLogger constructs the *zap.Logger described by LogLevel ("debug",
// "info", "warn", "error", or any other level name zap parses; a value zap
// cannot parse falls back to "info").
func (c Config) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}
