package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sshman/pkg/manager"
)

type testEnv struct {
	dir       string
	config    string
	store     string
	sshConfig string
}

func setupTestEnv(t *testing.T, extraSettings string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", filepath.Join(dir, "home"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("SSHMAN_CONFIG", "")
	t.Setenv("SSHMAN_THEME", "")

	env := &testEnv{
		dir:       dir,
		config:    filepath.Join(dir, "config.yaml"),
		store:     filepath.Join(dir, "data", "connections.json"),
		sshConfig: filepath.Join(dir, "ssh_config"),
	}
	settings := "store_path: " + env.store + "\n" +
		"ssh_config_path: " + env.sshConfig + "\n" +
		"log_file: " + filepath.Join(dir, "sshman.log") + "\n" +
		extraSettings
	require.NoError(t, os.WriteFile(env.config, []byte(settings), 0o600))
	return env
}

// execute runs the command tree and returns stdout, stderr and the exit code
// main would use.
func (e *testEnv) execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", e.config, "--no-color"}, args...))
	err := root.Execute()
	if err != nil {
		errOut.WriteString(err.Error())
	}
	return out.String(), errOut.String(), exitCode(err)
}

func writeStub(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "fake-ssh")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return p
}

func TestAddListRemove(t *testing.T) {
	env := setupTestEnv(t, "")

	out, _, code := env.execute(t, "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "No connections")

	_, _, code = env.execute(t, "add", "web", "10.0.0.1", "-u", "deploy", "-p", "2222")
	require.Equal(t, 0, code)
	_, _, code = env.execute(t, "add", "db", "db.internal")
	require.Equal(t, 0, code)

	out, _, code = env.execute(t, "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "deploy@10.0.0.1:2222")
	assert.Less(t, strings.Index(out, "web"), strings.Index(out, "db"), "insertion order")

	out, _, _ = env.execute(t, "list", "--sort", "name", "--names")
	assert.Equal(t, "db\nweb\n", out)

	out, _, _ = env.execute(t, "list", "-q", "INTERNAL", "--names")
	assert.Equal(t, "db\n", out)

	_, _, code = env.execute(t, "rm", "web")
	require.Equal(t, 0, code)
	out, _, _ = env.execute(t, "list", "--names")
	assert.Equal(t, "db\n", out)
}

func TestAddDuplicateExitCode(t *testing.T) {
	env := setupTestEnv(t, "")
	_, _, code := env.execute(t, "add", "web", "a")
	require.Equal(t, 0, code)
	_, stderr, code := env.execute(t, "add", "web", "b")
	assert.Equal(t, manager.ExitDuplicateName, code)
	assert.Contains(t, stderr, "already exists")

	s, err := manager.OpenStore(env.store)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestAddRejectsBadPort(t *testing.T) {
	env := setupTestEnv(t, "")
	_, _, code := env.execute(t, "add", "web", "h", "-p", "70000")
	assert.Equal(t, manager.ExitGeneralError, code)
}

func TestRemoveMissingExitCode(t *testing.T) {
	env := setupTestEnv(t, "")
	_, _, code := env.execute(t, "rm", "ghost")
	assert.Equal(t, manager.ExitNotFound, code)
}

func TestConnectDryRun(t *testing.T) {
	env := setupTestEnv(t, "")
	_, _, code := env.execute(t, "add", "edge", "edge.internal", "-p", "2222", "-u", "ops", "--", "-J", "bastion")
	require.Equal(t, 0, code)

	out, _, code := env.execute(t, "connect", "edge", "--dry-run")
	require.Equal(t, 0, code)
	assert.Equal(t, "ssh -p 2222 -J bastion ops@edge.internal\n", out)
}

func TestConnectPropagatesSSHExitStatus(t *testing.T) {
	dir := t.TempDir()
	stub := writeStub(t, dir, "exit 3")
	env := setupTestEnv(t, "ssh_binary: "+stub+"\n")
	_, _, code := env.execute(t, "add", "web", "h")
	require.Equal(t, 0, code)

	_, _, code = env.execute(t, "connect", "web")
	assert.Equal(t, 3, code)
}

func TestConnectMissingBinary(t *testing.T) {
	env := setupTestEnv(t, "ssh_binary: "+filepath.Join(t.TempDir(), "no-ssh")+"\n")
	_, _, code := env.execute(t, "add", "web", "h")
	require.Equal(t, 0, code)
	_, stderr, code := env.execute(t, "connect", "web")
	assert.Equal(t, manager.ExitLaunchFailed, code)
	assert.Contains(t, stderr, "no-ssh")
}

func TestImportMergesAndSkipsExisting(t *testing.T) {
	env := setupTestEnv(t, "")
	require.NoError(t, os.WriteFile(env.sshConfig, []byte(`
Host web
  HostName 10.0.0.1
  Port 2222
Host db
  HostName 10.0.0.2
  Port bogus
Host *
  User root
`), 0o600))
	_, _, code := env.execute(t, "add", "web", "old.example.com")
	require.Equal(t, 0, code)

	out, _, code := env.execute(t, "import", "--dry-run")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "+ db")
	assert.Contains(t, out, "= web")
	s, err := manager.OpenStore(env.store)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len(), "dry run writes nothing")

	out, stderr, code := env.execute(t, "import")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "+ db")
	assert.Contains(t, out, "= web (already saved)")
	assert.Contains(t, stderr, "invalid Port")

	s, err = manager.OpenStore(env.store)
	require.NoError(t, err)
	web, err := s.Get("web")
	require.NoError(t, err)
	assert.Equal(t, "old.example.com", web.Host)
	db, err := s.Get("db")
	require.NoError(t, err)
	assert.Equal(t, 22, db.Port)
}

func TestImportNamedMissing(t *testing.T) {
	env := setupTestEnv(t, "")
	require.NoError(t, os.WriteFile(env.sshConfig, []byte("Host web\n  HostName h\n"), 0o600))
	_, _, code := env.execute(t, "import", "nope")
	assert.Equal(t, manager.ExitNotFound, code)
}

func TestEditRenameAndArgs(t *testing.T) {
	env := setupTestEnv(t, "")
	_, _, code := env.execute(t, "add", "web", "h", "-u", "root")
	require.Equal(t, 0, code)

	_, _, code = env.execute(t, "edit", "web", "--name", "web-prod", "--args", `-o "ServerAliveInterval 30"`, "--user", "")
	require.Equal(t, 0, code)

	s, err := manager.OpenStore(env.store)
	require.NoError(t, err)
	c, err := s.Get("web-prod")
	require.NoError(t, err)
	assert.Equal(t, "", c.User)
	assert.Equal(t, []string{"-o", "ServerAliveInterval 30"}, c.ExtraArgs)

	_, _, code = env.execute(t, "edit", "web-prod")
	assert.Equal(t, manager.ExitGeneralError, code, "edit without flags is rejected")
}

func TestExportStdoutAndFile(t *testing.T) {
	env := setupTestEnv(t, "")
	_, _, code := env.execute(t, "add", "web", "10.0.0.1", "-p", "2222")
	require.Equal(t, 0, code)

	out, _, code := env.execute(t, "export")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Host web\n  HostName 10.0.0.1\n  Port 2222\n")

	file := filepath.Join(env.dir, "exported")
	_, _, code = env.execute(t, "export", "-o", file, "web")
	require.Equal(t, 0, code)
	res, err := manager.LoadSSHConfig(file)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, 2222, res.Candidates[0].Port)

	_, _, code = env.execute(t, "export", "ghost")
	assert.Equal(t, manager.ExitNotFound, code)
}

func TestCorruptStoreAndReset(t *testing.T) {
	env := setupTestEnv(t, "")
	require.NoError(t, os.MkdirAll(filepath.Dir(env.store), 0o700))
	require.NoError(t, os.WriteFile(env.store, []byte("{not json"), 0o600))

	_, stderr, code := env.execute(t, "list")
	assert.Equal(t, manager.ExitCorruptStore, code)
	assert.Contains(t, stderr, "store reset")

	_, _, code = env.execute(t, "store", "reset")
	require.Equal(t, 0, code)

	matches, err := filepath.Glob(env.store + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	_, _, code = env.execute(t, "list")
	assert.Equal(t, 0, code)
}

func TestStoreResetHealthyIsNoop(t *testing.T) {
	env := setupTestEnv(t, "")
	_, _, code := env.execute(t, "add", "web", "h")
	require.Equal(t, 0, code)
	_, _, code = env.execute(t, "store", "reset")
	require.Equal(t, 0, code)
	s, err := manager.OpenStore(env.store)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestInvalidSettingsExitCode(t *testing.T) {
	env := setupTestEnv(t, "sort: sideways\n")
	_, _, code := env.execute(t, "list")
	assert.Equal(t, manager.ExitConfigError, code)
}

func TestPathCommand(t *testing.T) {
	env := setupTestEnv(t, "")
	out, _, code := env.execute(t, "path")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "settings:   "+env.config)
	assert.Contains(t, out, "store:      "+env.store)
}
