// Package logging sets up the diagnostic logger shared by every command.
// Diagnostics go to stderr and to a JSON log file; stdout is reserved for
// hook responses.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing human-readable lines to console and JSON
// lines to filePath. When filePath is empty or cannot be opened the logger
// still works on console alone; the open error is returned so the caller
// can report it.
func New(level string, console io.Writer, filePath string) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	consoleWriter := zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}

	if filePath == "" {
		return zerolog.New(consoleWriter).Level(lvl).With().Timestamp().Logger(), nopCloser{}, nil
	}

	file, openErr := openLogFile(filePath)
	if openErr != nil {
		logger := zerolog.New(consoleWriter).Level(lvl).With().Timestamp().Logger()
		return logger, nopCloser{}, openErr
	}

	multi := zerolog.MultiLevelWriter(consoleWriter, file)
	logger := zerolog.New(multi).Level(lvl).With().Timestamp().Logger()
	return logger, file, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
