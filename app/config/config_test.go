package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NotEmpty(t, cfg.TableFile)
	assert.NotEmpty(t, cfg.CommandFile)
	assert.Empty(t, cfg.HistoryFile, "history disabled by default")
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackjobs.yml")
	content := `
table_file: /data/jobs.csv
history_file: /data/history.db
guard:
  load_avg_below: 8.5
notify:
  host: smtp.example.com
  port: 587
  to: [me@example.com]
  on_assumed: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/jobs.csv", cfg.TableFile)
	assert.Equal(t, Default().CommandFile, cfg.CommandFile, "unset keys keep defaults")
	assert.Equal(t, "/data/history.db", cfg.HistoryFile)
	require.NotNil(t, cfg.Guard.LoadAvgBelow)
	assert.Equal(t, 8.5, *cfg.Guard.LoadAvgBelow)
	assert.Equal(t, "smtp.example.com", cfg.Notify.Host)
	assert.Equal(t, []string{"me@example.com"}, cfg.Notify.To)
	assert.True(t, cfg.Notify.OnAssumed)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackjobs.yml")
	require.NoError(t, os.WriteFile(path, []byte("table_file: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyRequiredPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackjobs.yml")
	require.NoError(t, os.WriteFile(path, []byte(`table_file: ""`), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
