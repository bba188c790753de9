package run

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call records one command invocation made against a Fake.
type Call struct {
	Name  string
	Args  []string
	Stdin string
}

// String renders the call as a shell-like line for assertions.
func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Fake is a Runner for tests. It records every call, returns canned stdout
// for Output and canned errors for specific command prefixes.
type Fake struct {
	mu      sync.Mutex
	calls   []Call
	outputs map[string]string
	errs    map[string]error
}

// NewFake returns an empty Fake that succeeds on every call.
func NewFake() *Fake {
	return &Fake{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
	}
}

// Stub sets the stdout returned when Output is invoked with a command line
// beginning with prefix.
func (f *Fake) Stub(prefix, stdout string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[prefix] = stdout
}

// Fail makes any call whose command line begins with prefix return err.
func (f *Fake) Fail(prefix string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[prefix] = err
}

// Calls returns a copy of all recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CommandLines returns the recorded invocations as shell-like strings.
func (f *Fake) CommandLines() []string {
	var lines []string
	for _, c := range f.Calls() {
		lines = append(lines, c.String())
	}
	return lines
}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	line := c.String()
	for prefix, err := range f.errs {
		if strings.HasPrefix(line, prefix) {
			return err
		}
	}
	return nil
}

func (f *Fake) Run(_ context.Context, name string, args ...string) error {
	return f.record(Call{Name: name, Args: args})
}

func (f *Fake) Output(_ context.Context, name string, args ...string) (string, error) {
	c := Call{Name: name, Args: args}
	if err := f.record(c); err != nil {
		return "", err
	}
	line := c.String()
	f.mu.Lock()
	defer f.mu.Unlock()
	for prefix, out := range f.outputs {
		if strings.HasPrefix(line, prefix) {
			return out, nil
		}
	}
	return "", nil
}

func (f *Fake) RunInput(_ context.Context, stdin, name string, args ...string) error {
	return f.record(Call{Name: name, Args: args, Stdin: stdin})
}

var _ Runner = (*Fake)(nil)

// Errf is a convenience for canned failures.
func Errf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
