package install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Observer receives progress and diagnostic lines from the sequencer and
// its steps.
type Observer interface {
	Printf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// LogObserver mirrors everything to the terminal and to a per-phase log
// file, so a failed run leaves a full transcript next to the binary.
type LogObserver struct {
	log  *logrus.Logger
	file *os.File
	out  io.Writer
}

// NewLogObserver opens (or appends to) the log file for a phase identity.
func NewLogObserver(phase string) (*LogObserver, error) {
	path := logPath(phase)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	out := io.MultiWriter(os.Stdout, f)
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	return &LogObserver{log: log, file: f, out: out}, nil
}

// Writer returns the terminal+file tee. External command output is routed
// through it so the log file holds the full transcript, not just the
// installer's own lines.
func (o *LogObserver) Writer() io.Writer { return o.out }

func (o *LogObserver) Printf(format string, args ...any) { o.log.Infof(format, args...) }
func (o *LogObserver) Warnf(format string, args ...any)  { o.log.Warnf(format, args...) }
func (o *LogObserver) Errorf(format string, args ...any) { o.log.Errorf(format, args...) }

// Close flushes and closes the log file.
func (o *LogObserver) Close() error {
	return o.file.Close()
}

func logPath(phase string) string {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Sprintf("archon-%s.log", phase)
	}
	return filepath.Join(filepath.Dir(exe), fmt.Sprintf("archon-%s.log", phase))
}

// NopObserver discards everything; used in tests.
type NopObserver struct{}

func (NopObserver) Printf(string, ...any) {}
func (NopObserver) Warnf(string, ...any)  {}
func (NopObserver) Errorf(string, ...any) {}
