// Package manager is the core of sshman: the connection store, the OpenSSH
// config importer, the filter engine and the launch dispatcher.
//
// The package renders nothing and reads no keystrokes. Interactive front ends
// hold a *Store and call List/Add/Update/Delete/Merge, Filter and Launch.
package manager

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultPort is the port assumed when a record does not specify one.
	DefaultPort = 22

	minPort = 1
	maxPort = 65535
)

// Connection is a named, addressable SSH target.
//
// Example JSON:
//
//	{
//	  "name": "web",
//	  "host": "10.0.0.1",
//	  "port": 2222,
//	  "user": "deploy",
//	  "identity_file": "/home/me/.ssh/id_ed25519",
//	  "extra_args": ["-J", "bastion"]
//	}
type Connection struct {
	// Name is the unique, user-visible label. Case-sensitive.
	Name string `json:"name"`

	// Host is the hostname or address passed to ssh.
	Host string `json:"host"`

	// Port defaults to 22 when zero.
	Port int `json:"port"`

	User         string   `json:"user,omitempty"`
	IdentityFile string   `json:"identity_file,omitempty"`
	ExtraArgs    []string `json:"extra_args,omitempty"`
}

// UnmarshalJSON accepts the legacy "hostname" key written by older versions
// of the store as an alias for "host".
func (c *Connection) UnmarshalJSON(data []byte) error {
	type plain Connection
	var aux struct {
		plain
		Hostname string `json:"hostname"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Connection(aux.plain)
	if c.Host == "" {
		c.Host = aux.Hostname
	}
	return nil
}

// Normalize trims whitespace and applies the default port.
func (c Connection) Normalize() Connection {
	c.Name = strings.TrimSpace(c.Name)
	c.Host = strings.TrimSpace(c.Host)
	c.User = strings.TrimSpace(c.User)
	c.IdentityFile = strings.TrimSpace(c.IdentityFile)
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if len(c.ExtraArgs) > 0 {
		args := make([]string, 0, len(c.ExtraArgs))
		for _, a := range c.ExtraArgs {
			if a != "" {
				args = append(args, a)
			}
		}
		c.ExtraArgs = args
	}
	if len(c.ExtraArgs) == 0 {
		c.ExtraArgs = nil
	}
	return c
}

// Validate checks the record invariants: non-empty name and host, no leading
// '-' in host or user, and a port in the TCP range. Name uniqueness is enforced by the Store.
func (c Connection) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	host := strings.TrimSpace(c.Host)
	if host == "" {
		return fmt.Errorf("%s: host is required", c.Name)
	}
	// ssh would parse a leading '-' in the destination as an option.
	if strings.HasPrefix(host, "-") {
		return fmt.Errorf("%s: host %q must not start with '-'", c.Name, host)
	}
	if strings.HasPrefix(strings.TrimSpace(c.User), "-") {
		return fmt.Errorf("%s: user %q must not start with '-'", c.Name, c.User)
	}
	if c.Port < minPort || c.Port > maxPort {
		return fmt.Errorf("%s: port %d out of range (%d-%d)", c.Name, c.Port, minPort, maxPort)
	}
	return nil
}

// Clone returns a deep copy so callers never share ExtraArgs backing arrays
// with the store.
func (c Connection) Clone() Connection {
	if c.ExtraArgs != nil {
		c.ExtraArgs = append([]string(nil), c.ExtraArgs...)
	}
	return c
}

// DisplayTarget renders "user@host:port", omitting the user when empty and
// the port when it is the default.
func (c Connection) DisplayTarget() string {
	var b strings.Builder
	if c.User != "" {
		b.WriteString(c.User)
		b.WriteByte('@')
	}
	b.WriteString(c.Host)
	if c.Port != 0 && c.Port != DefaultPort {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(c.Port))
	}
	return b.String()
}

// ParsePort parses a user-supplied port. Empty input yields DefaultPort.
func ParsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPort, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if p < minPort || p > maxPort {
		return 0, fmt.Errorf("port %d out of range (%d-%d)", p, minPort, maxPort)
	}
	return p, nil
}

func cloneConnections(in []Connection) []Connection {
	if in == nil {
		return []Connection{}
	}
	out := make([]Connection, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
