package utils

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Logger mirrors console output into a per run log file. The file gets
// every line, the console only gets lines printed through Printf unless
// verbose output is enabled. Lines are serialized so concurrent workers
// do not interleave mid line.
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	verbose bool
}

// NewLogger opens the log file at path. An empty path keeps the logger
// console only, which tests use.
func NewLogger(path string, verbose bool) (*Logger, error) {
	l := &Logger{verbose: verbose}
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "Cannot create log file %q", path)
		}
		l.file = f
	}
	return l, nil
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

func (l *Logger) output(tag int, console bool, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		if _, err := fmt.Fprintf(l.file, "[%d] %s\r\n", tag, msg); err != nil {
			log.Printf("Error writing to log file: %v", err)
		}
	}
	if console || l.verbose {
		log.Printf("[%d] %s", tag, msg)
	}
}

// Worker returns a logging handle tagging every line with a worker id.
func (l *Logger) Worker(id int) *WorkerLog {
	return &WorkerLog{l: l, id: id}
}

// WorkerLog methods accept a nil receiver: parsers log through it
// unconditionally and tests run them without a sink.
type WorkerLog struct {
	l  *Logger
	id int
}

func (w *WorkerLog) Printf(format string, args ...interface{}) {
	if w == nil {
		log.Printf(format, args...)
		return
	}
	w.l.output(w.id, true, format, args...)
}

// Verbosef always reaches the log file and reaches the console only in
// verbose mode.
func (w *WorkerLog) Verbosef(format string, args ...interface{}) {
	if w == nil {
		return
	}
	w.l.output(w.id, false, format, args...)
}
