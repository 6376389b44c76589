// Package testoutput routes agent logging into the testing log so that it is
// interleaved with the output of the test that produced it.
package testoutput

import (
	"io"
	"os"
	"testing"

	"github.com/bottlerocket-os/switchdog/pkg/logging"
	"github.com/sirupsen/logrus"
)

// New returns a writer that writes strings (assuming lines) to the testing
// logger.
func New(t testing.TB) io.Writer {
	return &testoutput{t}
}

// Logger returns a component logger whose output lands in the test log. The
// root logger is reverted to stderr when the test finishes.
func Logger(t testing.TB, component string) logging.Logger {
	logging.Set(Setter(t))
	t.Cleanup(func() { logging.Set(Revert()) })
	return logging.New(component)
}

// Setter may be given to logging to send output to the testing facade. Tests
// using it must not run in parallel as they share the root logger.
func Setter(t testing.TB) logging.Setter {
	return func(l *logrus.Logger) error {
		l.SetOutput(New(t))
		l.SetLevel(logrus.DebugLevel)
		return nil
	}
}

// Revert restores the logger output to write to stderr.
func Revert() logging.Setter {
	return func(l *logrus.Logger) error {
		l.SetOutput(os.Stderr)
		l.SetLevel(logrus.InfoLevel)
		return nil
	}
}

type testoutput struct {
	t testing.TB
}

func (l *testoutput) Write(p []byte) (n int, err error) {
	l.t.Logf("%s", p)
	return len(p), nil
}
