package main

import (
	"errors"
	"os"

	"sshman/pkg/logging"
	"sshman/pkg/manager"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command tree and maps the result to a process exit code.
func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		var st sshExitStatus
		if !errors.As(err, &st) {
			logging.UserError("%v", err)
		}
	}
	return exitCode(err)
}

// exitCode passes a finished ssh session's status through unchanged and
// maps everything else through manager.ExitCode.
func exitCode(err error) int {
	var st sshExitStatus
	if errors.As(err, &st) {
		return int(st)
	}
	return manager.ExitCode(err)
}
