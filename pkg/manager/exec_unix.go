//go:build !windows

package manager

import (
	"os"
	"syscall"
)

func execReplace(path string, argv []string) error {
	return syscall.Exec(path, argv, os.Environ())
}
