package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings is matched by errors returned from LoadSettings and
// Settings.Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// Sort orders accepted in Settings.Sort.
const (
	SortInsertion = "insertion"
	SortName      = "name"
)

// Settings is the optional YAML configuration for sshman.
//
// Example YAML:
//
//	store_path: ~/.config/sshman/connections.json
//	ssh_config_path: ~/.ssh/config
//	ssh_binary: ssh
//	sort: name
//	exit_after_connect: false
//	log_file: ~/.config/sshman/sshman.log
//	theme: catppuccin
type Settings struct {
	StorePath     string `yaml:"store_path,omitempty"`
	SSHConfigPath string `yaml:"ssh_config_path,omitempty"`
	SSHBinary     string `yaml:"ssh_binary,omitempty"`

	// Sort is display ordering only: "insertion" (default) or "name".
	Sort string `yaml:"sort,omitempty"`

	// ExitAfterConnect replaces the process with ssh instead of returning to
	// the list when the session ends.
	ExitAfterConnect bool `yaml:"exit_after_connect,omitempty"`

	// LogFile receives debug logs while the TUI owns the terminal.
	LogFile string `yaml:"log_file,omitempty"`

	// Theme names the TUI palette: auto, dark, light, catppuccin or none.
	// $SSHMAN_THEME overrides it.
	Theme string `yaml:"theme,omitempty"`
}

// LoadSettings discovers and loads the YAML settings.
// If explicitPath is empty, it searches common locations in order:
//  1. $SSHMAN_CONFIG
//  2. $XDG_CONFIG_HOME/sshman/config.yaml
//  3. ~/.config/sshman/config.yaml
//
// A missing file is not an error: defaults are returned with an empty path.
// An explicit path that does not exist is an error.
func LoadSettings(explicitPath string) (*Settings, string, error) {
	for i, p := range SettingsPathCandidates(explicitPath) {
		p = ExpandPath(p)
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && !(i == 0 && explicitPath != "") {
				continue
			}
			return nil, p, fmt.Errorf("read settings %s: %w", p, err)
		}
		var st Settings
		if err := yaml.Unmarshal(data, &st); err != nil {
			return nil, p, fmt.Errorf("parse yaml %s: %w: %w", p, ErrInvalidSettings, err)
		}
		if err := st.applyDefaults(); err != nil {
			return nil, p, err
		}
		if err := st.Validate(); err != nil {
			return nil, p, fmt.Errorf("settings %s: %w", p, err)
		}
		return &st, p, nil
	}

	st := &Settings{}
	if err := st.applyDefaults(); err != nil {
		return nil, "", err
	}
	return st, "", nil
}

// SettingsPathCandidates returns possible settings file paths, in priority
// order. If explicitPath is provided, it is returned first.
func SettingsPathCandidates(explicitPath string) []string {
	var out []string
	if explicitPath != "" {
		out = append(out, explicitPath)
	}
	if env := os.Getenv("SSHMAN_CONFIG"); env != "" {
		out = append(out, env)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		out = append(out, filepath.Join(xdg, defaultConfigDirName, "config.yaml"))
	}
	if home, _ := os.UserHomeDir(); home != "" {
		out = append(out, filepath.Join(home, ".config", defaultConfigDirName, "config.yaml"))
	}
	return out
}

// Validate performs basic sanity checks.
//
// - sort must be one of: "" | insertion | name
// - ssh_binary must not be blank once set
func (s *Settings) Validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Sort)) {
	case "", SortInsertion, SortName:
	default:
		return fmt.Errorf("%w: sort %q (expected: insertion|name)", ErrInvalidSettings, s.Sort)
	}
	if strings.TrimSpace(s.SSHBinary) == "" {
		return fmt.Errorf("%w: ssh_binary is empty", ErrInvalidSettings)
	}
	return nil
}

// SortByName reports whether the display list should be ordered by name.
func (s *Settings) SortByName() bool {
	return strings.EqualFold(strings.TrimSpace(s.Sort), SortName)
}

func (s *Settings) applyDefaults() error {
	if strings.TrimSpace(s.StorePath) == "" {
		p, err := DefaultStorePath()
		if err != nil {
			return err
		}
		s.StorePath = p
	}
	if strings.TrimSpace(s.SSHConfigPath) == "" {
		p, err := DefaultSSHConfigPath()
		if err != nil {
			return err
		}
		s.SSHConfigPath = p
	}
	if strings.TrimSpace(s.LogFile) == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return err
		}
		s.LogFile = filepath.Join(dir, defaultLogFilename)
	}
	if s.SSHBinary == "" {
		s.SSHBinary = DefaultSSHProgram
	}
	if strings.TrimSpace(s.Sort) == "" {
		s.Sort = SortInsertion
	}
	s.StorePath = ExpandPath(s.StorePath)
	s.SSHConfigPath = ExpandPath(s.SSHConfigPath)
	s.LogFile = ExpandPath(s.LogFile)
	s.SSHBinary = strings.TrimSpace(s.SSHBinary)
	s.Sort = strings.ToLower(strings.TrimSpace(s.Sort))
	if env := strings.TrimSpace(os.Getenv("SSHMAN_THEME")); env != "" {
		s.Theme = env
	}
	s.Theme = strings.ToLower(strings.TrimSpace(s.Theme))
	return nil
}
