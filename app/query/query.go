// Package query runs the external queue-status command and exposes its
// output as raw text lines. The command itself lives in a plain text file,
// one shell token per line, so any scheduler's status tool can be plugged in.
package query

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/go-pkgz/lgr"
)

// DefaultCommand queries a Slurm scheduler for job id and state of all jobs
// visible to the current user.
var DefaultCommand = []string{"squeue", "--noheader", `--format="%.18i %.9T"`}

// Runner reads the command file and executes the status query.
type Runner struct {
	CmdFile string // location of the command file
}

// ExecError reports a status-query command that failed or exited nonzero.
type ExecError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExecError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("status query %q failed: %v, stderr: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("status query %q failed: %v", e.Command, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Command returns the command tokens from the command file, creating the file
// with the Slurm default when it doesn't exist yet.
func (r *Runner) Command() ([]string, error) {
	if _, err := os.Stat(r.CmdFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(r.CmdFile), 0o700); err != nil {
			return nil, fmt.Errorf("can't make command file location: %w", err)
		}
		if err := os.WriteFile(r.CmdFile, []byte(strings.Join(DefaultCommand, "\n")), 0o600); err != nil {
			return nil, fmt.Errorf("can't write default command file: %w", err)
		}
		log.Printf("[INFO] created %s with default slurm command", r.CmdFile)
	}

	data, err := os.ReadFile(r.CmdFile) //nolint:gosec // path comes from user config
	if err != nil {
		return nil, fmt.Errorf("can't read command file %s: %w", r.CmdFile, err)
	}

	var argv []string
	for _, line := range strings.Split(string(data), "\n") {
		if l := strings.TrimSpace(line); l != "" {
			argv = append(argv, l)
		}
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("command file %s is empty", r.CmdFile)
	}
	return argv, nil
}

// Lines executes the status query and returns its stdout split into non-empty
// lines. A nonzero exit is fatal, reconciliation must not proceed on a broken
// query. Blocks until the command exits; callers wanting a bound pass a
// context with deadline.
func (r *Runner) Lines(ctx context.Context) ([]string, error) {
	argv, err := r.Command()
	if err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] status query: %s", strings.Join(argv, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // command comes from user config
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &ExecError{Command: strings.Join(argv, " "), Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	log.Printf("[DEBUG] status query returned %d lines", len(lines))
	return lines, nil
}
