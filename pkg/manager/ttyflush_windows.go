//go:build windows

package manager

func flushTTYInput() {}
