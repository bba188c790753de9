// Package prompt abstracts the interactive questions the installer asks:
// device confirmation, passphrases and account passwords. The concrete
// implementation renders huh forms; tests inject a Stub so nothing blocks
// on a terminal.
package prompt

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// ErrNonInteractive is returned when a prompt would be required but no
// terminal is attached. Callers treat it as fatal rather than retrying.
var ErrNonInteractive = errors.New("interactive input required but no terminal is attached")

// Prompter asks the human operator for input.
type Prompter interface {
	// Confirm asks a yes/no question and returns the answer.
	Confirm(title, description string) (bool, error)

	// Secret reads a hidden value (an existing passphrase or password).
	Secret(title, description string) (string, error)

	// NewSecret reads a hidden value twice and verifies both entries
	// match. Used when a passphrase or password is first assigned.
	NewSecret(title, description string) (string, error)

	// Select asks the operator to pick one of the given options and
	// returns the chosen value.
	Select(title string, options []Option) (string, error)
}

// Option is one selectable choice, a value with its display label.
type Option struct {
	Value string
	Label string
}

// Terminal is the Prompter backed by huh forms on the controlling
// terminal.
type Terminal struct{}

// NewTerminal returns a terminal-backed Prompter, or ErrNonInteractive
// when stdin is not a TTY.
func NewTerminal() (*Terminal, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return nil, ErrNonInteractive
	}
	return &Terminal{}, nil
}

func (t *Terminal) Confirm(title, description string) (bool, error) {
	var answer bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&answer),
		),
	).Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	return answer, nil
}

func (t *Terminal) Secret(title, description string) (string, error) {
	var value string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description(description).
				EchoMode(huh.EchoModePassword).
				Validate(nonEmpty).
				Value(&value),
		),
	).Run()
	if err != nil {
		return "", fmt.Errorf("secret prompt: %w", err)
	}
	return value, nil
}

func (t *Terminal) NewSecret(title, description string) (string, error) {
	for {
		first, err := t.Secret(title, description)
		if err != nil {
			return "", err
		}
		second, err := t.Secret(title+" (again)", "Repeat to confirm")
		if err != nil {
			return "", err
		}
		if first == second {
			return first, nil
		}
		fmt.Fprintln(os.Stderr, "Entries did not match, try again.")
	}
}

func (t *Terminal) Select(title string, options []Option) (string, error) {
	huhOpts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		huhOpts = append(huhOpts, huh.NewOption(o.Label, o.Value))
	}
	var value string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(huhOpts...).
				Value(&value),
		),
	).Run()
	if err != nil {
		return "", fmt.Errorf("selection prompt: %w", err)
	}
	return value, nil
}

func nonEmpty(s string) error {
	if s == "" {
		return errors.New("value must not be empty")
	}
	return nil
}
