package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RenderSSHConfig renders connections as OpenSSH Host blocks, one per
// record, in the given order. The output round-trips through LoadSSHConfig.
// A record whose name is not a single literal Host pattern is left out and
// noted in a comment.
func RenderSSHConfig(records []Connection) []string {
	const indent = "  "
	lines := []string{
		"# Generated by sshman (export)",
		"#",
	}
	for i, c := range records {
		c = c.Normalize()
		if i > 0 {
			lines = append(lines, "")
		}
		if !exportableHostName(c.Name) {
			lines = append(lines, fmt.Sprintf("# skipped %q: name is not a literal Host pattern", c.Name))
			continue
		}
		lines = append(lines, "Host "+c.Name)
		lines = append(lines, indent+"HostName "+c.Host)
		if c.User != "" {
			lines = append(lines, indent+"User "+c.User)
		}
		if c.Port != DefaultPort {
			lines = append(lines, indent+"Port "+strconv.Itoa(c.Port))
		}
		if c.IdentityFile != "" {
			lines = append(lines, indent+"IdentityFile "+quoteSSHValue(c.IdentityFile))
		}
		rest := c.ExtraArgs
		if len(rest) >= 2 && rest[0] == "-J" {
			lines = append(lines, indent+"ProxyJump "+rest[1])
			rest = rest[2:]
		}
		if len(rest) > 0 {
			// Raw ssh flags have no general directive form.
			lines = append(lines, indent+"# extra ssh args: "+strings.Join(rest, " "))
		}
	}
	// Keep a trailing blank line for clean future appends.
	return append(lines, "")
}

// WriteSSHConfigExport renders records and writes them to path atomically,
// keeping the previous file as <path>.bak.
func WriteSSHConfigExport(path string, records []Connection) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("ssh export: output path is required")
	}
	if len(records) == 0 {
		return errors.New("ssh export: no connections selected")
	}
	abs := ExpandPath(path)
	if p, err := filepath.Abs(abs); err == nil {
		abs = p
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return fmt.Errorf("ssh export: create output dir: %w", err)
	}
	return writeExportWithBackup(abs, RenderSSHConfig(records))
}

func writeExportWithBackup(path string, lines []string) error {
	// Best-effort backup; last backup wins.
	if data, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(path+".bak", data, 0o600)
	}
	payload := strings.Join(lines, "\n")
	if !strings.HasSuffix(payload, "\n") {
		payload += "\n"
	}
	return writeFileAtomic(path, []byte(payload))
}

// exportableHostName reports whether name survives as one Host pattern that
// the importer reads back under the same name.
func exportableHostName(name string) bool {
	return name != "" && !strings.ContainsAny(name, " \t\"'#") && isLiteralHostPattern(name)
}

func quoteSSHValue(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
