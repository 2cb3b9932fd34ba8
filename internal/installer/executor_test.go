package installer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"install-tool/internal/logger"
	"install-tool/internal/resolver"
	"install-tool/internal/resources"
)

// commands is a CommandResolver over a fixed program -> command map.
type commands map[string]string

func (c commands) Resolve(program, key, _ string) (string, error) {
	if v, ok := c[program]; ok && key == resolver.KeyInstallCommand {
		return v, nil
	}
	return "", &resolver.NotFoundError{Program: program, Property: program + "." + key}
}

// fakeRunner records scripts instead of running them.
type fakeRunner struct {
	calls   []string
	codes   map[string]int
	scripts []string
	err     error
}

func (f *fakeRunner) RunScript(_ context.Context, _ string, script string, out io.Writer) (int, error) {
	data, err := os.ReadFile(script)
	if err != nil {
		return -1, err
	}
	f.scripts = append(f.scripts, script)
	f.calls = append(f.calls, string(data))
	if f.err != nil {
		return -1, f.err
	}
	_, _ = io.WriteString(out, "ran\n")
	return f.codes[string(data)], nil
}

func notOnPath(string) (string, error) { return "", exec.ErrNotFound }

// captureLog redirects the logger for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	prevNoColor := color.NoColor
	color.NoColor = true
	var buf bytes.Buffer
	prev := logger.SetOutput(&buf)
	t.Cleanup(func() {
		logger.SetOutput(prev)
		color.NoColor = prevNoColor
	})
	return &buf
}

func newFakeExecutor(t *testing.T, c commands, r *fakeRunner) *Executor {
	t.Helper()
	e := NewExecutor(c, "linux-x86_64")
	e.LookPath = notOnPath
	e.Runner = r
	e.ScriptDir = t.TempDir()
	e.Output = io.Discard
	return e
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "scripts left behind in %s", dir)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunWritesScript(t *testing.T) {
	captureLog(t)
	r := &fakeRunner{}
	e := newFakeExecutor(t, commands{"a": "echo a"}, r)

	code, records, err := e.Run(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, []string{"#!/usr/bin/env bash\necho a\n"}, r.calls)
	require.Len(t, records, 1)
	require.Equal(t, "ran", records[0].Output)
	require.True(t, records[0].HasOutput)
	require.Equal(t, "echo a", records[0].Command)
	requireEmptyDir(t, e.ScriptDir)
}

func TestRunSkipsProgramsOnPath(t *testing.T) {
	captureLog(t)
	r := &fakeRunner{}
	e := newFakeExecutor(t, commands{"X": "echo x"}, r)
	e.LookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }

	code, records, err := e.Run(context.Background(), []string{"X"})
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Empty(t, r.calls)
	require.Equal(t, []Record{{Program: "X", Skipped: true, Path: "/usr/bin/X"}}, records)
}

func TestRunMissingCommandAborts(t *testing.T) {
	log := captureLog(t)
	r := &fakeRunner{}
	e := newFakeExecutor(t, commands{"a": "echo a", "c": "echo c"}, r)

	code, records, err := e.Run(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, 1, code)
	require.Len(t, records, 1)
	require.Len(t, r.calls, 1, "c must not run after b failed to resolve")
	require.Contains(t, log.String(), "Unable to resolve install command for program b")
}

func TestRunLastExitCodeWins(t *testing.T) {
	captureLog(t)
	r := &fakeRunner{codes: map[string]int{"#!/usr/bin/env bash\nfail\n": 2}}
	e := newFakeExecutor(t, commands{"a": "fail", "b": "ok"}, r)

	code, _, err := e.Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, 0, code)

	code, _, err = e.Run(context.Background(), []string{"b", "a"})
	require.NoError(t, err)
	require.Equal(t, 2, code)
}

func TestRunFailFast(t *testing.T) {
	captureLog(t)
	r := &fakeRunner{codes: map[string]int{"#!/usr/bin/env bash\nfail\n": 2}}
	e := newFakeExecutor(t, commands{"a": "fail", "b": "ok"}, r)
	e.FailFast = true

	code, records, err := e.Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, 2, code)
	require.Len(t, records, 1)
	require.Len(t, r.calls, 1)
}

func TestRunSkipsRepeats(t *testing.T) {
	captureLog(t)
	r := &fakeRunner{}
	e := newFakeExecutor(t, commands{"a": "echo a"}, r)

	_, records, err := e.Run(context.Background(), []string{"a", "a", "a"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, r.calls, 1)
}

func TestRunLaunchFailureCleansUp(t *testing.T) {
	captureLog(t)
	r := &fakeRunner{err: errors.New("permission denied")}
	e := newFakeExecutor(t, commands{"a": "echo a"}, r)

	code, _, err := e.Run(context.Background(), []string{"a"})
	require.Equal(t, 1, code)
	require.ErrorContains(t, err, "permission denied")
	require.Len(t, r.scripts, 1)
	requireEmptyDir(t, e.ScriptDir)
}

// shortWriteFs hands out script files whose writes fail.
type shortWriteFs struct {
	afero.Fs
}

func (s shortWriteFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := s.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return failingFile{f}, nil
}

type failingFile struct {
	afero.File
}

func (failingFile) Write([]byte) (int, error) { return 0, errors.New("file too large") }

func TestRunWriteFailureCleansUp(t *testing.T) {
	captureLog(t)
	r := &fakeRunner{}
	e := newFakeExecutor(t, commands{"a": "echo a"}, r)
	e.Fs = shortWriteFs{afero.NewOsFs()}

	code, _, err := e.Run(context.Background(), []string{"a"})
	require.Equal(t, 1, code)
	require.ErrorContains(t, err, "file too large")
	require.Empty(t, r.calls)
	requireEmptyDir(t, e.ScriptDir)
}

func TestRunUniqueScriptNames(t *testing.T) {
	captureLog(t)
	r := &fakeRunner{}
	e := newFakeExecutor(t, commands{"a": "echo a", "b": "echo b"}, r)

	_, _, err := e.Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, r.scripts, 2)
	require.NotEqual(t, r.scripts[0], r.scripts[1])
}

func TestRunCanceledContext(t *testing.T) {
	captureLog(t)
	r := &fakeRunner{}
	e := newFakeExecutor(t, commands{"a": "echo a"}, r)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, _, err := e.Run(ctx, []string{"a"})
	require.Equal(t, 1, code)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, r.calls)
}

func TestRunOverrideCommandWithShell(t *testing.T) {
	requireShell(t)
	captureLog(t)

	res := resolver.New(resolver.MapStore{"maven.installCommand": "echo ok"},
		&resources.FSLoader{Fs: afero.NewMemMapFs()})
	e := NewExecutor(res, "linux-x86_64")
	e.LookPath = notOnPath
	e.Shell = "sh"
	e.ScriptDir = t.TempDir()
	var streamed bytes.Buffer
	e.Output = &streamed

	code, records, err := e.Run(context.Background(), []string{"maven"})
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Len(t, records, 1)
	require.Equal(t, "ok", records[0].Output)
	require.Equal(t, "ok\n", streamed.String())
	requireEmptyDir(t, e.ScriptDir)
}

func TestRunUnknownProgramLogsAttempts(t *testing.T) {
	log := captureLog(t)

	res := resolver.New(nil, &resources.FSLoader{Fs: afero.NewMemMapFs()})
	res.Unix = true
	e := NewExecutor(res, "linux-x86_64")
	e.LookPath = notOnPath
	e.ScriptDir = t.TempDir()

	code, _, err := e.Run(context.Background(), []string{"unknown"})
	require.NoError(t, err)
	require.Equal(t, 1, code)
	require.Contains(t, log.String(), "unknown.dependency.linux-x86_64.properties")
	require.Contains(t, log.String(), "unknown.dependency.generic-linux.properties")
}

func TestRunShellExitCodeAndCleanup(t *testing.T) {
	requireShell(t)
	captureLog(t)

	e := NewExecutor(commands{"a": "echo failing >&2; exit 3"}, "linux-x86_64")
	e.LookPath = notOnPath
	e.Shell = "sh"
	e.ScriptDir = t.TempDir()
	e.Output = io.Discard

	code, records, err := e.Run(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Equal(t, 3, code)
	require.Equal(t, "failing", records[0].Output)
	requireEmptyDir(t, e.ScriptDir)
}

func TestRunInheritsEnvironment(t *testing.T) {
	requireShell(t)
	captureLog(t)
	t.Setenv("INSTALL_TOOL_TEST_VALUE", "inherited")

	e := NewExecutor(commands{"a": "echo $INSTALL_TOOL_TEST_VALUE"}, "linux-x86_64")
	e.LookPath = notOnPath
	e.Shell = "sh"
	e.ScriptDir = t.TempDir()
	e.Output = io.Discard

	_, records, err := e.Run(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Equal(t, "inherited", records[0].Output)
}

func TestRunTimeout(t *testing.T) {
	requireShell(t)
	captureLog(t)

	e := NewExecutor(commands{"a": "sleep 5"}, "linux-x86_64")
	e.LookPath = notOnPath
	e.Shell = "sh"
	e.ScriptDir = t.TempDir()
	e.Output = io.Discard
	e.Timeout = 100 * time.Millisecond

	start := time.Now()
	code, _, err := e.Run(context.Background(), []string{"a"})
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, 1, code)
	require.Less(t, time.Since(start), 4*time.Second)
	requireEmptyDir(t, e.ScriptDir)
}

func TestRunMissingShell(t *testing.T) {
	captureLog(t)

	e := NewExecutor(commands{"a": "echo a"}, "linux-x86_64")
	e.LookPath = notOnPath
	e.Shell = "definitely-not-a-shell-binary"
	e.ScriptDir = t.TempDir()
	e.Output = io.Discard

	code, _, err := e.Run(context.Background(), []string{"a"})
	require.Error(t, err)
	require.Equal(t, 1, code)
	requireEmptyDir(t, e.ScriptDir)
}
