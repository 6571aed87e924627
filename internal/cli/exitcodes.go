package cli

import (
	"errors"

	"github.com/yaklabco/mdconvert/internal/configloader"
)

// Exit codes for mdconvert. A run that converted or failed files exits 0;
// per-file failures are reported, not signalled.
const (
	// ExitSuccess indicates the command ran to completion.
	ExitSuccess = 0

	// ExitFailure indicates an unexpected error such as an interrupted run.
	ExitFailure = 1

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65
)

var (
	// ErrUsage marks bad flags or arguments.
	ErrUsage = errors.New("invalid usage")

	// ErrConfig marks configuration that could not be loaded.
	ErrConfig = errors.New("failed to load configuration")
)

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	var validation *configloader.ValidationError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrUsage):
		return ExitInvalidUsage
	case errors.Is(err, ErrConfig), errors.As(err, &validation):
		return ExitConfigError
	default:
		return ExitFailure
	}
}

func usageError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrUsage, err)
}
