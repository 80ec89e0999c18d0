package commands

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConfigLoad      = errors.New("failed to load configuration")
)

// ExitCodeError carries a child process exit status up to main.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
