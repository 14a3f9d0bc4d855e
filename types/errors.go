package types

import "fmt"

type ErrInvalidConfiguration struct {
	Source float64
	Target float64
	Reason string
}

func (e ErrInvalidConfiguration) Error() string {
	return fmt.Sprintf("invalid frame skipping configuration (source:%g fps, target:%g fps): %s", e.Source, e.Target, e.Reason)
}

type ErrNoTimestamp struct{}

func (ErrNoTimestamp) Error() string {
	return "the sample has no presentation timestamp"
}

type ErrNotStarted struct{}

func (ErrNotStarted) Error() string {
	return "not started"
}

type ErrAlreadyStarted struct{}

func (ErrAlreadyStarted) Error() string {
	return "already started"
}

type ErrModeSwitchWhileRunning struct {
	From Mode
	To   Mode
}

func (e ErrModeSwitchWhileRunning) Error() string {
	return fmt.Sprintf("cannot switch the mode from %s to %s while running; stop first", e.From, e.To)
}
