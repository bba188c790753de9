// Package run wraps external command execution behind a narrow interface
// so that destructive operations can be recorded and stubbed in tests.
package run

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external commands. Exactly one implementation talks to
// the real system; tests inject a Fake to observe or suppress calls.
type Runner interface {
	// Run executes a command, streaming its output to the process
	// streams. Returns an error when the command exits non-zero.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes a command and returns its trimmed stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)

	// RunInput executes a command with the given stdin. Used for tools
	// that consume secrets or batch input on stdin (cryptsetup, chpasswd).
	RunInput(ctx context.Context, stdin, name string, args ...string) error
}

// Exec is the real Runner backed by os/exec. Command output goes to Out,
// so wiring the phase's log tee there captures what the external tools
// print, not just the installer's own lines.
type Exec struct {
	Out io.Writer
}

// NewExec returns a Runner whose command output goes to out. A nil out
// falls back to the process streams.
func NewExec(out io.Writer) *Exec {
	if out == nil {
		out = os.Stdout
	}
	return &Exec{Out: out}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = e.Out
	cmd.Stderr = e.Out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (e *Exec) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w (%s)", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (e *Exec) RunInput(ctx context.Context, stdin, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = e.Out
	cmd.Stderr = e.Out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// LookPath reports whether a tool is available. Variable so tests can
// pretend tools exist.
var LookPath = exec.LookPath

// CheckTools verifies that the named external tools are present in PATH.
func CheckTools(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, err := LookPath(n); err != nil {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}
	return nil
}
