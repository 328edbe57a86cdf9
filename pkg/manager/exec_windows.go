//go:build windows

package manager

import (
	"errors"
	"os"
	"os/exec"
)

// execReplace has no exec(2) on Windows: run ssh as a child and exit with
// its status.
func execReplace(path string, argv []string) error {
	cmd := exec.Command(path, argv[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	err := cmd.Run()
	var ee *exec.ExitError
	if err != nil && !errors.As(err, &ee) {
		return err
	}
	os.Exit(cmd.ProcessState.ExitCode())
	return nil
}
