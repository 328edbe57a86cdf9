package manager

import (
	"errors"
	"fmt"
	"os/exec"
)

// Sentinels matched through errors.Is by the typed errors below.
var (
	ErrDuplicateName = errors.New("duplicate connection name")
	ErrNotFound      = errors.New("connection not found")
	ErrCorruptStore  = errors.New("corrupt connection store")
	ErrLaunch        = errors.New("launch failed")
	ErrInvalidRecord = errors.New("invalid connection")
)

// Exit codes for the sshman binary.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitNotFound      = 2
	ExitDuplicateName = 3
	ExitCorruptStore  = 4
	ExitLaunchFailed  = 5
	ExitConfigError   = 6
)

// DuplicateNameError is returned by Add (and by Update when renaming) when a
// record with the same name already exists.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("connection %q already exists", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// NotFoundError is returned by Get, Update and Delete for an unknown name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("connection %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// CorruptStoreError reports a persisted store that cannot be parsed or fails
// validation. The file is left untouched.
type CorruptStoreError struct {
	Path  string
	Cause error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt store %s: %v", e.Path, e.Cause)
}

func (e *CorruptStoreError) Unwrap() error { return e.Cause }

func (e *CorruptStoreError) Is(target error) bool { return target == ErrCorruptStore }

// InvalidRecordError wraps a record that failed Validate.
type InvalidRecordError struct {
	Cause error
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid connection: %v", e.Cause)
}

func (e *InvalidRecordError) Unwrap() error { return e.Cause }

func (e *InvalidRecordError) Is(target error) bool { return target == ErrInvalidRecord }

// LaunchError means the external ssh program could not be started at all.
// A non-zero exit of ssh itself is never a LaunchError.
type LaunchError struct {
	Program string
	Cause   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Program, e.Cause)
}

func (e *LaunchError) Unwrap() error { return e.Cause }

func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }

// ImportParseWarning is a non-fatal problem found while parsing one Host
// block. The offending directive is dropped and the import continues.
type ImportParseWarning struct {
	Source  string
	Line    int
	Block   string
	Message string
}

func (w ImportParseWarning) String() string {
	if w.Block != "" {
		return fmt.Sprintf("%s:%d: Host %s: %s", w.Source, w.Line, w.Block, w.Message)
	}
	return fmt.Sprintf("%s:%d: %s", w.Source, w.Line, w.Message)
}

// ExitCode maps an error to the process exit code. A nil error is success.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exec.ExitError
	switch {
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrDuplicateName):
		return ExitDuplicateName
	case errors.Is(err, ErrCorruptStore):
		return ExitCorruptStore
	case errors.Is(err, ErrLaunch):
		return ExitLaunchFailed
	case errors.Is(err, ErrInvalidSettings):
		return ExitConfigError
	case errors.As(err, &ee):
		if code := ee.ExitCode(); code > 0 {
			return code
		}
	}
	return ExitGeneralError
}
