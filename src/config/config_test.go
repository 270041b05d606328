package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mosaicnetworks/glomers/src/counter"
	"github.com/sirupsen/logrus"
)

func TestDefaultConfig(t *testing.T) {
	conf := NewDefaultConfig()

	if err := conf.Validate(); err != nil {
		t.Fatalf("err: %v", err)
	}

	bc := conf.BroadcastConfig()
	if bc.GossipInterval != DefaultGossipInterval || bc.Redundancy != DefaultGossipRedundancy {
		t.Fatalf("wrong broadcast config: %+v", bc)
	}

	if nc := conf.NodeConfig(); nc.QueueSize != DefaultQueueSize || nc.Logger == nil {
		t.Fatalf("wrong node config: %+v", nc)
	}
}

func TestValidate(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.QueueSize = -1 },
		func(c *Config) { c.GossipInterval = 0 },
		func(c *Config) { c.GossipRedundancy = -0.1 },
		func(c *Config) { c.GossipRedundancy = 1.5 },
	}

	for i, mutate := range cases {
		conf := NewDefaultConfig()
		mutate(conf)
		if err := conf.Validate(); err == nil {
			t.Fatalf("case %d: expected an error", i)
		}
	}
}

func TestDefaultCounterConfig(t *testing.T) {
	if cc := NewDefaultConfig().CounterConfig(); cc != counter.DefaultConfig() {
		t.Fatalf("default counter config %+v should match %+v", cc, counter.DefaultConfig())
	}
}

func TestCounterConfig(t *testing.T) {
	conf := NewDefaultConfig()
	conf.GossipInterval = time.Second

	if cc := conf.CounterConfig(); cc.GossipInterval != time.Second {
		t.Fatalf("wrong counter config: %+v", cc)
	}
}

func TestLogLevel(t *testing.T) {
	levels := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"info":    logrus.InfoLevel,
		"warn":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"panic":   logrus.PanicLevel,
		"unknown": logrus.DebugLevel,
	}

	for s, l := range levels {
		if LogLevel(s) != l {
			t.Fatalf("%s should parse to %v", s, l)
		}
	}
}

func TestLogFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "glomers")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.RemoveAll(dir)

	conf := NewDefaultConfig()
	conf.LogFile = filepath.Join(dir, "node.log")

	logger := conf.Logger()
	logger.Logger.Out = ioutil.Discard
	logger.WithField("node_id", "n1").Info("Init")

	data, err := ioutil.ReadFile(conf.LogFile)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !strings.Contains(string(data), `"node_id":"n1"`) {
		t.Fatalf("log file should contain the entry, got %s", data)
	}
}
