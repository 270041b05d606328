package node

import (
	"testing"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/sirupsen/logrus"
)

// Config holds the runtime options of a node.
type Config struct {
	// QueueSize is the capacity of the event channel shared by the input
	// reader and the background producers.
	QueueSize int `mapstructure:"queue-size"`

	Logger *logrus.Logger
}

// NewConfig ...
func NewConfig(queueSize int, logger *logrus.Logger) *Config {
	return &Config{
		QueueSize: queueSize,
		Logger:    logger,
	}
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		QueueSize: 256,
		Logger:    logger,
	}
}

// TestConfig returns a default config logging into t.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Logger = common.NewTestLogger(t, logrus.DebugLevel)
	return config
}
