package main

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LogSplitHook directs matched levels to its configured output.
type LogSplitHook struct {
	output io.Writer
	levels []logrus.Level
}

// Fire is invoked when logrus tries to log any message.
func (hook *LogSplitHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	for _, level := range hook.levels {
		if level == entry.Level {
			_, err := hook.output.Write([]byte(line))
			return err
		}
	}
	return nil
}

// Levels returns the log levels this hook is being applied to.
func (hook *LogSplitHook) Levels() []logrus.Level {
	return hook.levels
}

// splitHooks sends warnings and below to stdout and errors to stderr.
func splitHooks(stdout, stderr io.Writer) []logrus.Hook {
	return []logrus.Hook{
		&LogSplitHook{stdout, []logrus.Level{
			logrus.WarnLevel, logrus.InfoLevel, logrus.DebugLevel, logrus.TraceLevel}},
		&LogSplitHook{stderr, []logrus.Level{
			logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}},
	}
}
