package config

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/mosaicnetworks/glomers/src/broadcast"
	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/counter"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default configuration values.
const (
	DefaultLogLevel         = "info"
	DefaultLogFile          = ""
	DefaultServiceAddr      = ""
	DefaultQueueSize        = 256
	DefaultGossipInterval   = broadcast.DefaultGossipInterval
	DefaultGossipRedundancy = broadcast.DefaultRedundancy
)

// Config contains all the configuration properties of a node process.
type Config struct {
	// LogLevel determines the chattiness of the log output. Logs always go to
	// standard error, standard output carries the protocol.
	LogLevel string `mapstructure:"log"`

	// LogFile is an optional file receiving a copy of the logs.
	LogFile string `mapstructure:"log-file"`

	// ServiceAddr is the address:port of the optional HTTP service exposing
	// stats and metrics. It is disabled when empty.
	ServiceAddr string `mapstructure:"service-listen"`

	// QueueSize is the capacity of the event queue of the node.
	QueueSize int `mapstructure:"queue-size"`

	// GossipInterval is the time between two rounds of gossip, in the
	// workloads that gossip.
	GossipInterval time.Duration `mapstructure:"gossip-interval"`

	// GossipRedundancy is the fraction of values a neighbor already knows
	// that may be added to a broadcast gossip, relative to the values it does
	// not know.
	GossipRedundancy float64 `mapstructure:"gossip-redundancy"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		LogLevel:         DefaultLogLevel,
		LogFile:          DefaultLogFile,
		ServiceAddr:      DefaultServiceAddr,
		QueueSize:        DefaultQueueSize,
		GossipInterval:   DefaultGossipInterval,
		GossipRedundancy: DefaultGossipRedundancy,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// Validate checks the values that would make a node misbehave.
func (c *Config) Validate() error {
	if c.QueueSize < 0 {
		return fmt.Errorf("queue-size must not be negative, got %d", c.QueueSize)
	}
	if c.GossipInterval <= 0 {
		return fmt.Errorf("gossip-interval must be positive, got %v", c.GossipInterval)
	}
	if c.GossipRedundancy < 0 || c.GossipRedundancy > 1 {
		return fmt.Errorf("gossip-redundancy must be between 0 and 1, got %v", c.GossipRedundancy)
	}
	return nil
}

// Logger returns a formatted logrus Entry, with prefix set to "glomers".
func (c *Config) Logger() *logrus.Entry {
	return c.baseLogger().WithField("prefix", "glomers")
}

func (c *Config) baseLogger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Out = os.Stderr
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			pathMap := lfshook.PathMap{}
			for _, l := range logrus.AllLevels {
				pathMap[l] = c.LogFile
			}

			c.logger.Hooks.Add(lfshook.NewHook(
				pathMap,
				&logrus.JSONFormatter{},
			))
		}
	}
	return c.logger
}

// NodeConfig returns the configuration of the node runtime.
func (c *Config) NodeConfig() *node.Config {
	return node.NewConfig(c.QueueSize, c.baseLogger())
}

// BroadcastConfig returns the configuration of the broadcast workload.
func (c *Config) BroadcastConfig() broadcast.Config {
	conf := broadcast.DefaultConfig()
	conf.GossipInterval = c.GossipInterval
	conf.Redundancy = c.GossipRedundancy
	return conf
}

// CounterConfig returns the configuration of the grow-only counter workload.
func (c *Config) CounterConfig() counter.Config {
	return counter.Config{
		GossipInterval: c.GossipInterval,
	}
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
