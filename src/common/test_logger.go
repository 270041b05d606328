package common

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

// This can be used as the destination for a logger and it'll
// map them into calls to testing.T.Log, so that you only see
// the logging for failed tests. Goroutines outliving the test, such as a
// reader blocked on its input, are silenced once the test is over.
type testLoggerAdapter struct {
	sync.Mutex
	t      testing.TB
	prefix string
	done   bool
}

func (a *testLoggerAdapter) Write(d []byte) (int, error) {
	a.Lock()
	defer a.Unlock()

	if a.done || len(d) == 0 {
		return len(d), nil
	}

	if d[len(d)-1] == '\n' {
		d = d[:len(d)-1]
	}
	if a.prefix != "" {
		l := a.prefix + ": " + string(d)
		a.t.Log(l)
		return len(l), nil
	}
	a.t.Log(string(d))
	return len(d), nil
}

// NewTestLogger returns a logrus Logger that writes to the test's log at the
// given level.
func NewTestLogger(t testing.TB, level logrus.Level) *logrus.Logger {
	adapter := &testLoggerAdapter{t: t}
	t.Cleanup(func() {
		adapter.Lock()
		adapter.done = true
		adapter.Unlock()
	})

	logger := logrus.New()
	logger.Out = adapter
	logger.Level = level
	return logger
}

// NewTestEntry is NewTestLogger at debug level, with a prefix field set.
func NewTestEntry(t testing.TB, prefix string) *logrus.Entry {
	return NewTestLogger(t, logrus.DebugLevel).WithField("prefix", prefix)
}
