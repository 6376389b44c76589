package logging

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// SubComponentField names the log field used to tell apart the steps of a
// single component, for example the phases of one workflow run.
const SubComponentField = "subcomponent"

// DebugEnable is set through -ldflags -X to produce a Debuggable build.
var DebugEnable string

// Debuggable builds log full switch command output and outgoing headers.
var Debuggable = DebugEnable != ""

// Setter modifies the root logger.
type Setter func(*logrus.Logger) error

var root = struct {
	logger *logrus.Logger
	mutex  *sync.Mutex
}{
	logger: func() *logrus.Logger {
		l := logrus.New()
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		return l
	}(),
	mutex: &sync.Mutex{},
}

// Logger is the logger handed to components.
type Logger interface {
	logrus.FieldLogger

	Writer() *io.PipeWriter
	WriterLevel(logrus.Level) *io.PipeWriter
}

// New returns a logger tagged with the given component name.
func New(component string, setters ...Setter) Logger {
	for _, setter := range setters {
		// no errors handling for now
		_ = Set(setter)
	}
	return root.logger.WithField("component", component)
}

// Set applies setter to the root logger.
func Set(setter Setter) error {
	root.mutex.Lock()
	err := setter(root.logger)
	root.mutex.Unlock()
	return err
}

// Level parses lvl and returns a Setter for it. Unparseable levels fall back
// to info, the agent's default.
func Level(lvl string) Setter {
	l, err := logrus.ParseLevel(lvl)
	if err != nil {
		root.logger.WithError(err).Errorf("unable to parse provided level %q", lvl)
		l = logrus.InfoLevel
	}
	return func(r *logrus.Logger) error {
		r.SetLevel(l)
		return nil
	}
}

// Output returns a Setter that redirects the root logger to w. Hooks are left
// in place so callers can discard the default output and dispatch by level.
func Output(w io.Writer) Setter {
	return func(r *logrus.Logger) error {
		r.SetOutput(w)
		return nil
	}
}

// Hook returns a Setter that adds h to the root logger.
func Hook(h logrus.Hook) Setter {
	return func(r *logrus.Logger) error {
		r.AddHook(h)
		return nil
	}
}
