// Package logger centralizes creation of the subsystem loggers. A single
// btclog backend writes to stdout and, once InitLogRotator has been called,
// to a rotated log file.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

var (
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	mtx              sync.Mutex
	subsystemLoggers = make(map[string]btclog.Logger)
)

// NewSubLogger registers and returns a logger for the given subsystem tag.
// Repeated calls with the same tag return the same logger.
func NewSubLogger(tag string) btclog.Logger {
	mtx.Lock()
	defer mtx.Unlock()
	if log, ok := subsystemLoggers[tag]; ok {
		return log
	}
	log := backendLog.Logger(tag)
	subsystemLoggers[tag] = log
	return log
}

// InitLogRotator initializes the logging rotator to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-global log rotator variables are used.
func InitLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return errors.Wrap(err, "failed to create log directory")
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return errors.Wrap(err, "failed to create file rotator")
	}
	logRotator = r
	return nil
}

// CloseLogRotator closes the log rotator if it was initialized.
func CloseLogRotator() {
	if logRotator != nil {
		logRotator.Close()
	}
}

// SetLogLevels sets the log level for every registered subsystem.
func SetLogLevels(levelStr string) error {
	level, ok := btclog.LevelFromString(levelStr)
	if !ok {
		return fmt.Errorf("invalid log level %q", levelStr)
	}
	mtx.Lock()
	defer mtx.Unlock()
	for _, log := range subsystemLoggers {
		log.SetLevel(level)
	}
	return nil
}
