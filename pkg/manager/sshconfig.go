package manager

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// Directive is one "Key Value" line inside a Host block. Key is lower-cased.
type Directive struct {
	Key   string
	Value string
	Line  int
}

// HostBlock is a Host section of an OpenSSH client config: the patterns from
// the Host line followed by its directives in file order.
type HostBlock struct {
	Patterns   []string
	Directives []Directive
	Source     string
	Line       int
}

// IncludeDirective is an Include line. Before is the index of the first
// HostBlock that follows it in the same file, which keeps file order when
// the loader splices included files in.
type IncludeDirective struct {
	Patterns []string
	Source   string
	Line     int
	Before   int
}

// ParsedSSHConfig is the structured parse of a single file.
type ParsedSSHConfig struct {
	Source   string
	Blocks   []HostBlock
	Includes []IncludeDirective
	Warnings []ImportParseWarning
}

// ImportResult is what the importer hands to Store.Merge.
type ImportResult struct {
	Candidates []Connection
	Warnings   []ImportParseWarning
	// Files lists every config file that was read, in read order.
	Files []string
}

// ParseSSHConfig splits an OpenSSH client config into Host blocks of typed
// directives. It does no I/O beyond reading r and does not follow Include.
//
// Notes:
//   - "Key Value" and "Key=Value" forms are accepted; keys are case-insensitive.
//   - Match sections end the current Host block and their directives are dropped.
//   - Directives before the first Host line are global and ignored.
func ParseSSHConfig(r io.Reader, source string) (*ParsedSSHConfig, error) {
	pc := &ParsedSSHConfig{Source: source}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var current *HostBlock
	flush := func() {
		if current != nil {
			pc.Blocks = append(pc.Blocks, *current)
			current = nil
		}
	}

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(stripSSHInlineComment(sc.Text()))
		if line == "" {
			continue
		}
		key, val, ok := splitKeyVal(line)
		if !ok {
			w := ImportParseWarning{Source: source, Line: lineNo, Message: fmt.Sprintf("directive %q has no value", line)}
			if current != nil && len(current.Patterns) > 0 {
				w.Block = current.Patterns[0]
			}
			pc.Warnings = append(pc.Warnings, w)
			continue
		}

		switch lkey := strings.ToLower(key); lkey {
		case "host":
			flush()
			current = &HostBlock{Source: source, Line: lineNo}
			for _, p := range strings.Fields(val) {
				if p = unquoteSSHValue(p); p != "" {
					current.Patterns = append(current.Patterns, p)
				}
			}
		case "match":
			flush()
		case "include":
			flush()
			inc := IncludeDirective{Source: source, Line: lineNo, Before: len(pc.Blocks)}
			for _, p := range strings.Fields(val) {
				if p = unquoteSSHValue(p); p != "" {
					inc.Patterns = append(inc.Patterns, p)
				}
			}
			pc.Includes = append(pc.Includes, inc)
		default:
			if current == nil {
				continue
			}
			current.Directives = append(current.Directives, Directive{
				Key:   lkey,
				Value: unquoteSSHValue(val),
				Line:  lineNo,
			})
		}
	}
	flush()

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ssh config %s: %w", source, err)
	}
	return pc, nil
}

// ReduceBlock folds a Host block into an import candidate. ok is false for
// blocks without a literal pattern (wildcard-only or negated), which do not
// name a single addressable target.
//
// Within the block the last occurrence of a key wins. A missing HostName
// falls back to the alias; a missing or invalid Port falls back to 22.
func ReduceBlock(b HostBlock) (cand Connection, ok bool, warnings []ImportParseWarning) {
	name := firstLiteralPattern(b.Patterns)
	if name == "" {
		return Connection{}, false, nil
	}

	last := make(map[string]Directive, len(b.Directives))
	for _, d := range b.Directives {
		last[d.Key] = d
	}

	cand = Connection{Name: name, Host: name, Port: DefaultPort}

	if d, found := last["hostname"]; found && d.Value != "" {
		cand.Host = strings.ReplaceAll(d.Value, "%h", name)
	}
	if d, found := last["port"]; found {
		p, err := strconv.Atoi(d.Value)
		if err != nil || p < minPort || p > maxPort {
			warnings = append(warnings, ImportParseWarning{
				Source:  b.Source,
				Line:    d.Line,
				Block:   name,
				Message: fmt.Sprintf("invalid Port %q, using %d", d.Value, DefaultPort),
			})
		} else {
			cand.Port = p
		}
	}
	if d, found := last["user"]; found {
		cand.User = d.Value
	}
	if d, found := last["identityfile"]; found && d.Value != "" && !strings.EqualFold(d.Value, "none") {
		cand.IdentityFile = ExpandPath(d.Value)
	}
	if d, found := last["proxyjump"]; found && d.Value != "" && !strings.EqualFold(d.Value, "none") {
		cand.ExtraArgs = []string{"-J", d.Value}
	}
	return cand.Normalize(), true, warnings
}

// Candidates reduces every block and drops later blocks that repeat an
// alias already produced, mirroring ssh's first-match precedence.
func Candidates(blocks []HostBlock) ([]Connection, []ImportParseWarning) {
	var out []Connection
	var warnings []ImportParseWarning
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		c, ok, ws := ReduceBlock(b)
		warnings = append(warnings, ws...)
		if !ok {
			continue
		}
		if _, dup := seen[c.Name]; dup {
			warnings = append(warnings, ImportParseWarning{
				Source:  b.Source,
				Line:    b.Line,
				Block:   c.Name,
				Message: "duplicate Host alias, keeping the first definition",
			})
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out, warnings
}

// LoadSSHConfig reads the config at path, follows Include directives and
// returns the import candidates. A missing file is an empty result, not an
// error. The file is never written.
func LoadSSHConfig(path string) (*ImportResult, error) {
	if strings.TrimSpace(path) == "" {
		var err error
		path, err = DefaultSSHConfigPath()
		if err != nil {
			return nil, err
		}
	}
	path = ExpandPath(path)

	res := &ImportResult{}
	visited := map[string]struct{}{}
	blocks, err := loadSSHConfigRecursive(path, visited, res)
	if err != nil {
		return nil, err
	}
	cands, ws := Candidates(blocks)
	res.Candidates = cands
	res.Warnings = append(res.Warnings, ws...)
	return res, nil
}

func loadSSHConfigRecursive(path string, visited map[string]struct{}, res *ImportResult) ([]HostBlock, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if _, ok := visited[abs]; ok {
		return nil, nil
	}
	visited[abs] = struct{}{}

	f, err := os.Open(abs)
	if err != nil {
		// Include globs commonly point at files that do not exist yet.
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ssh config %s: %w", abs, err)
	}
	defer f.Close()

	pc, err := ParseSSHConfig(f, abs)
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, abs)
	res.Warnings = append(res.Warnings, pc.Warnings...)

	out := make([]HostBlock, 0, len(pc.Blocks))
	inc := 0
	for i := 0; i <= len(pc.Blocks); i++ {
		for inc < len(pc.Includes) && pc.Includes[inc].Before == i {
			for _, pattern := range pc.Includes[inc].Patterns {
				for _, child := range expandIncludePattern(abs, pattern) {
					blocks, err := loadSSHConfigRecursive(child, visited, res)
					if err != nil {
						return nil, err
					}
					out = append(out, blocks...)
				}
			}
			inc++
		}
		if i < len(pc.Blocks) {
			out = append(out, pc.Blocks[i])
		}
	}
	return out, nil
}

// expandIncludePattern resolves an Include argument to existing files.
// Relative patterns are confined to the including file's directory.
func expandIncludePattern(baseFile, pattern string) []string {
	pattern = ExpandPath(pattern)
	if pattern == "" {
		return nil
	}
	if !filepath.IsAbs(pattern) {
		joined, err := securejoin.SecureJoin(filepath.Dir(baseFile), pattern)
		if err != nil {
			return nil
		}
		pattern = joined
	}
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && !fi.IsDir() {
			out = append(out, m)
		}
	}
	return out
}

func stripSSHInlineComment(s string) string {
	// Remove comments starting with '#' unless inside single or double quotes.
	inSingle := false
	inDouble := false
	for i, r := range s {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if !inSingle && !inDouble {
				return strings.TrimRight(s[:i], " \t")
			}
		}
	}
	return s
}

func splitKeyVal(line string) (key, val string, ok bool) {
	// Accept "Key Value", "Key=Value" and "Key = Value".
	i := strings.IndexAny(line, " \t=")
	if i < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:i])
	val = strings.TrimSpace(line[i:])
	val = strings.TrimSpace(strings.TrimPrefix(val, "="))
	if key == "" || val == "" {
		return "", "", false
	}
	return key, val, true
}

func unquoteSSHValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func firstLiteralPattern(patterns []string) string {
	for _, p := range patterns {
		if isLiteralHostPattern(p) {
			return p
		}
	}
	return ""
}

func isLiteralHostPattern(p string) bool {
	// OpenSSH patterns use '*' and '?' as wildcards and '!' for negation.
	if p == "" || strings.HasPrefix(p, "!") {
		return false
	}
	if strings.ContainsAny(p, "*?") {
		return false
	}
	return !strings.ContainsAny(p, " \t")
}
