package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_CommandCreatesDefault(t *testing.T) {
	cmdFile := filepath.Join(t.TempDir(), "cfg", "check_status_command")
	r := Runner{CmdFile: cmdFile}

	argv, err := r.Command()
	require.NoError(t, err)
	assert.Equal(t, DefaultCommand, argv)

	data, err := os.ReadFile(cmdFile)
	require.NoError(t, err)
	assert.Equal(t, "squeue\n--noheader\n--format=\"%.18i %.9T\"", string(data))
}

func TestRunner_CommandParsesTokens(t *testing.T) {
	cmdFile := filepath.Join(t.TempDir(), "cmd")
	require.NoError(t, os.WriteFile(cmdFile, []byte("qstat\n  -u  \nsomeuser\n\n"), 0o600))

	r := Runner{CmdFile: cmdFile}
	argv, err := r.Command()
	require.NoError(t, err)
	assert.Equal(t, []string{"qstat", "-u", "someuser"}, argv, "one trimmed token per line, empty lines dropped")
}

func TestRunner_CommandEmptyFile(t *testing.T) {
	cmdFile := filepath.Join(t.TempDir(), "cmd")
	require.NoError(t, os.WriteFile(cmdFile, []byte("\n  \n"), 0o600))

	r := Runner{CmdFile: cmdFile}
	_, err := r.Command()
	assert.Error(t, err)
}

func TestRunner_Lines(t *testing.T) {
	cmdFile := filepath.Join(t.TempDir(), "cmd")
	require.NoError(t, os.WriteFile(cmdFile, []byte("echo\n1 RUNNING\n"), 0o600))

	r := Runner{CmdFile: cmdFile}
	lines, err := r.Lines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1 RUNNING"}, lines)
}

func TestRunner_LinesMultiple(t *testing.T) {
	cmdFile := filepath.Join(t.TempDir(), "cmd")
	require.NoError(t, os.WriteFile(cmdFile, []byte("printf\n1 RUNNING\\n2 PENDING\\n\\n"), 0o600))

	r := Runner{CmdFile: cmdFile}
	lines, err := r.Lines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1 RUNNING", "2 PENDING"}, lines, "trailing blank output dropped")
}

func TestRunner_LinesEmptyOutput(t *testing.T) {
	cmdFile := filepath.Join(t.TempDir(), "cmd")
	require.NoError(t, os.WriteFile(cmdFile, []byte("true\n"), 0o600))

	r := Runner{CmdFile: cmdFile}
	lines, err := r.Lines(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRunner_LinesFailure(t *testing.T) {
	cmdFile := filepath.Join(t.TempDir(), "cmd")
	require.NoError(t, os.WriteFile(cmdFile, []byte("false\n"), 0o600))

	r := Runner{CmdFile: cmdFile}
	_, err := r.Lines(context.Background())
	require.Error(t, err)
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "false", execErr.Command)
}

func TestRunner_LinesMissingBinary(t *testing.T) {
	cmdFile := filepath.Join(t.TempDir(), "cmd")
	require.NoError(t, os.WriteFile(cmdFile, []byte("no-such-binary-really\n"), 0o600))

	r := Runner{CmdFile: cmdFile}
	_, err := r.Lines(context.Background())
	var execErr *ExecError
	assert.ErrorAs(t, err, &execErr)
}
