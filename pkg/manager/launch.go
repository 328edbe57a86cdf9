package manager

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// DefaultSSHProgram is the client launched when no other is configured.
const DefaultSSHProgram = "ssh"

// LaunchResult is the outcome of a finished ssh session. A non-zero
// ExitCode is a normal result (the remote refused, the network dropped, the
// user typed exit 1), not a launcher failure.
type LaunchResult struct {
	Name     string
	Argv     []string
	ExitCode int
}

// Launcher hands a connection off to the external ssh program.
type Launcher struct {
	// Program is the ssh client to run. Empty means DefaultSSHProgram.
	Program string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// FlushTTY discards pending terminal input before handing over the TTY.
	FlushTTY bool
}

// NewLauncher returns a Launcher attached to the process's own terminal.
func NewLauncher(program string) *Launcher {
	return &Launcher{
		Program:  program,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		FlushTTY: true,
	}
}

// BuildSSHCommand constructs the argv for OpenSSH:
//
//	ssh [-p port] [-i identity] [extra args...] [user@]host
//
// Only non-default fields are emitted; extra args are passed verbatim before
// the destination so they are parsed as options.
func BuildSSHCommand(c Connection) []string {
	c = c.Normalize()
	argv := []string{DefaultSSHProgram}
	if c.Port != DefaultPort {
		argv = append(argv, "-p", strconv.Itoa(c.Port))
	}
	if c.IdentityFile != "" {
		argv = append(argv, "-i", ExpandPath(c.IdentityFile))
	}
	argv = append(argv, c.ExtraArgs...)

	dest := c.Host
	if c.User != "" {
		dest = c.User + "@" + dest
	}
	return append(argv, dest)
}

func (l *Launcher) program() string {
	if l.Program == "" {
		return DefaultSSHProgram
	}
	return l.Program
}

// Argv is BuildSSHCommand with the configured program as argv[0].
func (l *Launcher) Argv(c Connection) []string {
	argv := BuildSSHCommand(c)
	argv[0] = l.program()
	return argv
}

// Resolve looks up the configured program and returns its path. It fails
// with *LaunchError when the program cannot be found.
func (l *Launcher) Resolve() (string, error) {
	path, err := exec.LookPath(l.program())
	if err != nil {
		return "", &LaunchError{Program: l.program(), Cause: err}
	}
	return path, nil
}

// Command resolves the program and returns a ready, unstarted *exec.Cmd.
// It fails with *LaunchError when the program cannot be found.
func (l *Launcher) Command(c Connection) (*exec.Cmd, error) {
	argv := l.Argv(c)
	path, err := l.Resolve()
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(path, argv[1:]...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	return cmd, nil
}

// Session is a prepared, unstarted ssh run. It satisfies bubbletea's
// ExecCommand interface so a TUI can release the terminal around it.
type Session struct {
	Name    string
	Program string
	cmd     *exec.Cmd
	flush   bool
}

// Session resolves the program and prepares a run for c. It fails with
// *LaunchError when the program cannot be found.
func (l *Launcher) Session(c Connection) (*Session, error) {
	cmd, err := l.Command(c)
	if err != nil {
		return nil, err
	}
	return &Session{Name: c.Name, Program: l.program(), cmd: cmd, flush: l.FlushTTY}, nil
}

// Argv returns the full command line, program first.
func (s *Session) Argv() []string { return append([]string(nil), s.cmd.Args...) }

func (s *Session) SetStdin(r io.Reader)  { s.cmd.Stdin = r }
func (s *Session) SetStdout(w io.Writer) { s.cmd.Stdout = w }
func (s *Session) SetStderr(w io.Writer) { s.cmd.Stderr = w }

// Run starts ssh and waits for it. The raw error is returned; pass it to
// Outcome to separate ssh's exit status from a launch failure.
func (s *Session) Run() error {
	if s.flush {
		flushTTYInput()
	}
	return s.cmd.Run()
}

// Launch runs ssh attached to the launcher's terminal and waits for it to
// exit. ssh's exit status is reported in the result; only a failure to start
// the program is an error.
func (l *Launcher) Launch(c Connection) (LaunchResult, error) {
	res := LaunchResult{Name: c.Name, Argv: l.Argv(c)}
	sess, err := l.Session(c)
	if err != nil {
		return res, err
	}
	code, err := Outcome(res.Argv[0], sess.Run())
	res.ExitCode = code
	return res, err
}

// Exec replaces the current process with ssh. It only returns on failure.
func (l *Launcher) Exec(c Connection) error {
	argv := l.Argv(c)
	path, err := l.Resolve()
	if err != nil {
		return err
	}
	if l.FlushTTY {
		flushTTYInput()
	}
	if err := execReplace(path, argv); err != nil {
		return &LaunchError{Program: argv[0], Cause: err}
	}
	return nil
}

// Outcome classifies the error returned by running ssh. An *exec.ExitError
// becomes an exit code with a nil error; any other error is a *LaunchError.
func Outcome(program string, runErr error) (exitCode int, err error) {
	if runErr == nil {
		return 0, nil
	}
	var ee *exec.ExitError
	if errors.As(runErr, &ee) {
		code := ee.ExitCode()
		if code < 0 {
			// Killed by a signal.
			code = 255
		}
		return code, nil
	}
	var le *LaunchError
	if errors.As(runErr, &le) {
		return -1, runErr
	}
	return -1, &LaunchError{Program: program, Cause: runErr}
}
