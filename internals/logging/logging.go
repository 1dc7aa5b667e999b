package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const FileName = "log.txt"

// Init builds the process logger writing to <dataDir>/log.txt and, when
// console is not nil, to console as well. Colour is only used when console
// is a terminal. The returned file must be closed by the caller.
func Init(dataDir string, level slog.Level, console io.Writer) (*slog.Logger, *os.File, error) {
	logPath := filepath.Join(dataDir, FileName)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	var w io.Writer = logFile
	if console != nil {
		w = io.MultiWriter(console, logFile)
	}
	logger := New(w, level, !isTerminal(console))
	slog.SetDefault(logger)
	return logger, logFile, nil
}

func New(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:   level,
		NoColor: noColor,
	}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
