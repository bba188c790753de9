package prompt

// Stub is a canned Prompter for tests and non-interactive wiring.
type Stub struct {
	ConfirmAnswer bool
	SecretAnswer  string
	SelectAnswer  string
	Err           error

	// Confirms counts Confirm invocations, Secrets counts Secret and
	// NewSecret invocations, Selects counts Select invocations.
	Confirms int
	Secrets  int
	Selects  int
}

func (s *Stub) Confirm(string, string) (bool, error) {
	s.Confirms++
	return s.ConfirmAnswer, s.Err
}

func (s *Stub) Secret(string, string) (string, error) {
	s.Secrets++
	return s.SecretAnswer, s.Err
}

func (s *Stub) NewSecret(string, string) (string, error) {
	s.Secrets++
	return s.SecretAnswer, s.Err
}

func (s *Stub) Select(_ string, options []Option) (string, error) {
	s.Selects++
	if s.Err != nil {
		return "", s.Err
	}
	if s.SelectAnswer == "" && len(options) > 0 {
		return options[0].Value, nil
	}
	return s.SelectAnswer, nil
}

var _ Prompter = (*Stub)(nil)

// Disabled is the Prompter for non-interactive runs: every prompt fails
// with ErrNonInteractive so nothing can block on a missing terminal.
type Disabled struct{}

func (Disabled) Confirm(string, string) (bool, error)     { return false, ErrNonInteractive }
func (Disabled) Secret(string, string) (string, error)    { return "", ErrNonInteractive }
func (Disabled) NewSecret(string, string) (string, error) { return "", ErrNonInteractive }
func (Disabled) Select(string, []Option) (string, error)  { return "", ErrNonInteractive }

var _ Prompter = Disabled{}
