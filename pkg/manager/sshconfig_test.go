package manager

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSSHConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadSSHConfig_SkipsWildcardsAndDefaultsPort(t *testing.T) {
	dir := t.TempDir()
	p := writeSSHConfig(t, dir, "config", `
Host web
  HostName 10.0.0.1
  User deploy
  Port 2222
Host *
  User root
`)
	res, err := LoadSSHConfig(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(res.Candidates), res.Candidates)
	}
	c := res.Candidates[0]
	if c.Name != "web" || c.Host != "10.0.0.1" || c.User != "deploy" || c.Port != 2222 {
		t.Fatalf("unexpected candidate %+v", c)
	}
}

func TestParseSSHConfig_CommentsAndForms(t *testing.T) {
	input := `# global settings
ServerAliveInterval 30

Host app   # trailing comment
	hostname=app.example.com
	USER = ops
	IdentityFile "/keys/my key"

Match host foo
	User ignored
`
	pc, err := ParseSSHConfig(strings.NewReader(input), "mem")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(pc.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(pc.Blocks))
	}
	b := pc.Blocks[0]
	if len(b.Patterns) != 1 || b.Patterns[0] != "app" {
		t.Fatalf("expected patterns [app], got %v", b.Patterns)
	}
	if len(b.Directives) != 3 {
		t.Fatalf("expected 3 directives, got %+v", b.Directives)
	}

	c, ok, ws := ReduceBlock(b)
	if !ok || len(ws) != 0 {
		t.Fatalf("expected clean reduce, ok=%v warnings=%v", ok, ws)
	}
	if c.Host != "app.example.com" || c.User != "ops" || c.IdentityFile != "/keys/my key" || c.Port != 22 {
		t.Fatalf("unexpected candidate %+v", c)
	}
}

func TestReduceBlock_HostNameFallsBackToAlias(t *testing.T) {
	c, ok, _ := ReduceBlock(HostBlock{Patterns: []string{"bare"}})
	if !ok || c.Host != "bare" || c.Port != DefaultPort {
		t.Fatalf("expected host=bare port=22, got ok=%v %+v", ok, c)
	}
}

func TestReduceBlock_InvalidPortWarns(t *testing.T) {
	b := HostBlock{
		Patterns:   []string{"x"},
		Source:     "cfg",
		Directives: []Directive{{Key: "port", Value: "abc", Line: 4}},
	}
	c, ok, ws := ReduceBlock(b)
	if !ok {
		t.Fatalf("expected candidate")
	}
	if c.Port != DefaultPort {
		t.Fatalf("expected fallback port 22, got %d", c.Port)
	}
	if len(ws) != 1 || ws[0].Line != 4 || ws[0].Block != "x" {
		t.Fatalf("expected one warning at line 4, got %+v", ws)
	}
}

func TestReduceBlock_LastDirectiveWins(t *testing.T) {
	b := HostBlock{
		Patterns: []string{"x"},
		Directives: []Directive{
			{Key: "hostname", Value: "first"},
			{Key: "hostname", Value: "second"},
		},
	}
	c, _, _ := ReduceBlock(b)
	if c.Host != "second" {
		t.Fatalf("expected last HostName to win, got %s", c.Host)
	}
}

func TestReduceBlock_TokensAndProxyJump(t *testing.T) {
	home, _ := os.UserHomeDir()
	b := HostBlock{
		Patterns: []string{"!bad", "*.corp", "edge", "edge2"},
		Directives: []Directive{
			{Key: "hostname", Value: "%h.corp.example.com"},
			{Key: "identityfile", Value: "~/.ssh/id_edge"},
			{Key: "proxyjump", Value: "bastion"},
		},
	}
	c, ok, _ := ReduceBlock(b)
	if !ok || c.Name != "edge" {
		t.Fatalf("expected first literal pattern edge, got ok=%v %+v", ok, c)
	}
	if c.Host != "edge.corp.example.com" {
		t.Fatalf("expected %%h substitution, got %s", c.Host)
	}
	if home != "" && c.IdentityFile != filepath.Join(home, ".ssh", "id_edge") {
		t.Fatalf("expected expanded identity file, got %s", c.IdentityFile)
	}
	if strings.Join(c.ExtraArgs, " ") != "-J bastion" {
		t.Fatalf("expected -J bastion, got %v", c.ExtraArgs)
	}
}

func TestReduceBlock_WildcardOnly(t *testing.T) {
	for _, pats := range [][]string{{"*"}, {"db-?"}, {"!prod"}, {"*", "?x"}} {
		if _, ok, _ := ReduceBlock(HostBlock{Patterns: pats}); ok {
			t.Fatalf("expected %v to be skipped", pats)
		}
	}
}

func TestParseSSHConfig_KeyWithoutValueWarns(t *testing.T) {
	pc, err := ParseSSHConfig(strings.NewReader("Host a\n  HostName\n  User u\n"), "mem")
	if err != nil {
		t.Fatal(err)
	}
	if len(pc.Warnings) != 1 || pc.Warnings[0].Line != 2 || pc.Warnings[0].Block != "a" {
		t.Fatalf("expected warning at line 2 in block a, got %+v", pc.Warnings)
	}
	if len(pc.Blocks) != 1 || len(pc.Blocks[0].Directives) != 1 {
		t.Fatalf("expected the block to keep its valid directive, got %+v", pc.Blocks)
	}
}

func TestCandidates_DuplicateAliasFirstWins(t *testing.T) {
	blocks := []HostBlock{
		{Patterns: []string{"dup"}, Directives: []Directive{{Key: "hostname", Value: "one"}}},
		{Patterns: []string{"dup"}, Directives: []Directive{{Key: "hostname", Value: "two"}}},
	}
	cands, ws := Candidates(blocks)
	if len(cands) != 1 || cands[0].Host != "one" {
		t.Fatalf("expected first dup to win, got %+v", cands)
	}
	if len(ws) != 1 {
		t.Fatalf("expected a duplicate warning, got %+v", ws)
	}
}

func TestLoadSSHConfig_MissingFileIsEmpty(t *testing.T) {
	res, err := LoadSSHConfig(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(res.Candidates) != 0 || len(res.Files) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestLoadSSHConfig_FollowsIncludeInOrder(t *testing.T) {
	dir := t.TempDir()
	writeSSHConfig(t, dir, "conf.d/a.conf", "Host inc-a\n  HostName a.example.com\n")
	writeSSHConfig(t, dir, "conf.d/b.conf", "Host inc-b\n  HostName b.example.com\n")
	p := writeSSHConfig(t, dir, "config", `Host first
  HostName 1.example.com
Include conf.d/*.conf
Host last
  HostName 2.example.com
Include config
`)
	res, err := LoadSSHConfig(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.Join(names(res.Candidates), ","); got != "first,inc-a,inc-b,last" {
		t.Fatalf("expected file order first,inc-a,inc-b,last, got %s", got)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files read (self-include ignored), got %v", res.Files)
	}
}

func TestLoadSSHConfig_DoesNotModifySource(t *testing.T) {
	dir := t.TempDir()
	content := "Host web\n  HostName 10.0.0.1\n"
	p := writeSSHConfig(t, dir, "config", content)
	if _, err := LoadSSHConfig(p); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(p)
	if string(data) != content {
		t.Fatalf("expected config untouched")
	}
}

func TestRenderSSHConfig_RoundTrip(t *testing.T) {
	records := []Connection{
		{Name: "web", Host: "10.0.0.1", Port: 2222, User: "deploy", IdentityFile: "/keys/id web", ExtraArgs: []string{"-J", "bastion", "-A"}},
		{Name: "db", Host: "db.internal"},
	}
	out := filepath.Join(t.TempDir(), "exported")
	if err := WriteSSHConfigExport(out, records); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, _ := os.ReadFile(out)
	if !strings.Contains(string(data), "# extra ssh args: -A") {
		t.Fatalf("expected unmapped args in a comment:\n%s", data)
	}

	res, err := LoadSSHConfig(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", res.Candidates)
	}
	web := res.Candidates[0]
	if web.Host != "10.0.0.1" || web.Port != 2222 || web.User != "deploy" || web.IdentityFile != "/keys/id web" {
		t.Fatalf("unexpected web after round trip: %+v", web)
	}
	if strings.Join(web.ExtraArgs, " ") != "-J bastion" {
		t.Fatalf("expected ProxyJump to survive, got %v", web.ExtraArgs)
	}
	if db := res.Candidates[1]; db.Port != DefaultPort || db.User != "" {
		t.Fatalf("unexpected db after round trip: %+v", db)
	}
}

func TestWriteSSHConfigExport_KeepsBackup(t *testing.T) {
	out := filepath.Join(t.TempDir(), "exported")
	if err := os.WriteFile(out, []byte("old\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteSSHConfigExport(out, []Connection{{Name: "a", Host: "h"}}); err != nil {
		t.Fatal(err)
	}
	bak, err := os.ReadFile(out + ".bak")
	if err != nil || string(bak) != "old\n" {
		t.Fatalf("expected backup with old content, got %q err=%v", bak, err)
	}
	if err := WriteSSHConfigExport(out, nil); err == nil {
		t.Fatalf("expected error exporting nothing")
	}
}

func TestRenderSSHConfig_SkipsNamesThatAreNotOnePattern(t *testing.T) {
	records := []Connection{
		{Name: "prod web", Host: "10.0.0.1"},
		{Name: "db*", Host: "10.0.0.2"},
		{Name: "api", Host: "10.0.0.3"},
	}
	out := filepath.Join(t.TempDir(), "exported")
	if err := WriteSSHConfigExport(out, records); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, _ := os.ReadFile(out)
	if !strings.Contains(string(data), `# skipped "prod web"`) || strings.Contains(string(data), "Host prod web") {
		t.Fatalf("expected whitespace name to be skipped with a note:\n%s", data)
	}

	res, err := LoadSSHConfig(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].Name != "api" {
		t.Fatalf("expected only api to round trip, got %+v", res.Candidates)
	}
}

func TestWriteSSHConfigExport_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "exported")
	if err := WriteSSHConfigExport(out, []Connection{{Name: "a", Host: "h"}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteSSHConfigExport(out, []Connection{{Name: "b", Host: "h"}}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "exported,exported.bak" {
		t.Fatalf("expected only the export and its backup, got %v", names)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}
}
