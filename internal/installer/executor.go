package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"install-tool/internal/logger"
	"install-tool/internal/resolver"
)

// DefaultShell runs install scripts when no shell is configured.
const DefaultShell = "bash"

// Record is the outcome of processing one program.
type Record struct {
	Program string `json:"program"`
	// Skipped is set when the program was already on PATH.
	Skipped bool   `json:"skipped"`
	Path    string `json:"path,omitempty"`
	Command string `json:"command,omitempty"`
	// ExitCode of the install command, 0 for skipped programs.
	ExitCode  int           `json:"exit_code"`
	Output    string        `json:"output,omitempty"`
	HasOutput bool          `json:"has_output"`
	Duration  time.Duration `json:"duration"`
}

// CommandResolver resolves a program property for an OS.
type CommandResolver interface {
	Resolve(program, key, osID string) (string, error)
}

// Executor installs programs one after another.
type Executor struct {
	resolver CommandResolver
	osID     string

	// LookPath finds an executable on PATH. Defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// Runner runs install scripts. Defaults to ShellRunner.
	Runner ScriptRunner
	// Shell interprets install scripts. Defaults to DefaultShell.
	Shell string
	// ScriptDir holds the temporary scripts. Defaults to os.TempDir().
	ScriptDir string
	// Fs creates and removes the scripts. It must be the filesystem the
	// shell reads from. Defaults to the host filesystem.
	Fs afero.Fs
	// Timeout bounds each install command; zero means no limit.
	Timeout time.Duration
	// FailFast stops at the first install command that exits non-zero.
	FailFast bool
	// Output receives install command output as it is produced.
	// Defaults to logger.Writer().
	Output io.Writer
}

// NewExecutor returns an Executor resolving install commands for osID.
func NewExecutor(r CommandResolver, osID string) *Executor {
	return &Executor{
		resolver: r,
		osID:     osID,
		LookPath: exec.LookPath,
		Runner:   ShellRunner{},
		Shell:    DefaultShell,
		Fs:       afero.NewOsFs(),
	}
}

// Run installs programs in the given order, skipping repeats. It returns the
// exit code of the last program processed, or 1 as soon as a program has no
// install command. Failures to launch a command are returned as errors.
func (e *Executor) Run(ctx context.Context, programs []string) (int, []Record, error) {
	ran := make(map[string]bool, len(programs))
	records := make([]Record, 0, len(programs))
	exit := 0

	for _, program := range programs {
		// A program listed twice is only processed the first time
		if ran[program] {
			continue
		}
		ran[program] = true

		if err := ctx.Err(); err != nil {
			return 1, records, err
		}

		rec, err := e.install(ctx, program)
		if err != nil {
			var nf *resolver.NotFoundError
			if errors.As(err, &nf) {
				logger.Error("[ERROR] Unable to resolve install command for program %s. Tried resources: %s\n",
					program, strings.Join(nf.Attempted, ", "))
				return 1, records, nil
			}
			return 1, records, fmt.Errorf("install %s: %w", program, err)
		}
		records = append(records, rec)

		// The aggregate is whatever the last processed program returned
		exit = rec.ExitCode
		if exit != 0 {
			logger.Warn("[WARN] Install command for %s exited with code %d\n", program, exit)
			if e.FailFast {
				return exit, records, nil
			}
		}
	}

	return exit, records, nil
}

// Present reports whether program is already an executable on PATH.
func (e *Executor) Present(program string) (string, bool) {
	lookPath := e.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(program)
	if err != nil || path == "" {
		return "", false
	}
	return path, true
}

func (e *Executor) install(ctx context.Context, program string) (Record, error) {
	// Anything already on PATH counts as installed
	if path, ok := e.Present(program); ok {
		logger.Info("[INFO] Program %s already installed at %s. Skipping.\n", program, path)
		return Record{Program: program, Skipped: true, Path: path}, nil
	}

	// Resolve the install command from overrides or resources
	command, err := e.resolver.Resolve(program, resolver.KeyInstallCommand, e.osID)
	if err != nil {
		return Record{}, err
	}

	logger.Info("[INFO] Running %s\n", command)
	start := time.Now()
	code, output, err := e.runCommand(ctx, command)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		Program:   program,
		Command:   command,
		ExitCode:  code,
		Output:    output,
		HasOutput: output != "",
		Duration:  time.Since(start),
	}
	if rec.HasOutput {
		logger.Debug("[DEBUG] Command output for %s:\n%s\n", program, output)
	}
	return rec, nil
}

// runCommand writes command to a uniquely named script, runs it and removes
// it again on every path.
func (e *Executor) runCommand(ctx context.Context, command string) (int, string, error) {
	shell := e.Shell
	if shell == "" {
		shell = DefaultShell
	}
	dir := e.ScriptDir
	if dir == "" {
		dir = os.TempDir()
	}

	fsys := e.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	// The script is removed on every path once it exists, including a
	// failed write.
	script := filepath.Join(dir, uuid.NewString()+".sh")
	f, err := fsys.OpenFile(script, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o755)
	if err != nil {
		return -1, "", fmt.Errorf("create script: %w", err)
	}
	defer func() {
		if err := fsys.Remove(script); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("[WARN] Failed to remove script %s: %v\n", script, err)
		}
	}()
	if err := writeScript(f, shell, command); err != nil {
		return -1, "", err
	}
	logger.Debug("[DEBUG] Wrote install script %s\n", script)

	// Bound the command when a timeout is configured
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	// Stream output to the log while keeping a copy for the record
	var captured bytes.Buffer
	out := e.Output
	if out == nil {
		out = logger.Writer()
	}

	runner := e.Runner
	if runner == nil {
		runner = ShellRunner{}
	}
	code, err := runner.RunScript(ctx, shell, script, io.MultiWriter(&captured, out))
	if err != nil {
		return -1, captured.String(), err
	}
	return code, strings.TrimRight(captured.String(), "\n"), nil
}

// writeScript writes the shebang line and command to f and closes it.
func writeScript(f afero.File, shell, command string) error {
	_, err := fmt.Fprintf(f, "#!/usr/bin/env %s\n%s\n", shell, command)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}
