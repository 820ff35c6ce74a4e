package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attpc/synchronizer/internal/timesync"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Minimal(t *testing.T) {
	path := writeConfig(t, `
merger_path: "/data/merger/"
sync_path: "/data/sync/"
min_run: 55
max_run: 69
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/merger/", cfg.MergerPath)
	assert.Equal(t, "/data/sync/", cfg.SyncPath)
	assert.Equal(t, 55, cfg.MinRun)
	assert.Equal(t, 69, cfg.MaxRun)
	assert.Equal(t, 1, cfg.Jobs)
	assert.Equal(t, PolicySkip, cfg.MissingEventPolicy)
	assert.Equal(t, timesync.DefaultParams(), cfg.Params())
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
merger_path: /data/merger
sync_path: /data/sync
min_run: 1
max_run: 1
jobs: 4
missing_event_policy: fail
thresholds:
  align_tolerance: 50
  depth: 6
  match_threshold: 10
  skip_threshold: 2000
  anomaly_threshold: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, PolicyFail, cfg.MissingEventPolicy)
	assert.Equal(t, timesync.Params{
		AlignTolerance:   50,
		Depth:            6,
		MatchThreshold:   10,
		SkipThreshold:    2000,
		AnomalyThreshold: 8,
	}, cfg.Params())
}

func TestLoad_PartialThresholds(t *testing.T) {
	tests := []struct {
		name   string
		block  string
		adjust func(*timesync.Params)
	}{
		{
			name:   "skip threshold only",
			block:  "thresholds:\n  skip_threshold: 2000\n",
			adjust: func(p *timesync.Params) { p.SkipThreshold = 2000 },
		},
		{
			name:   "explicit zero tolerance",
			block:  "thresholds:\n  align_tolerance: 0\n",
			adjust: func(p *timesync.Params) { p.AlignTolerance = 0 },
		},
		{
			name:   "empty block",
			block:  "thresholds:\n",
			adjust: func(*timesync.Params) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, "merger_path: /a\nsync_path: /b\nmin_run: 1\nmax_run: 2\n"+tt.block))
			require.NoError(t, err)

			want := timesync.DefaultParams()
			tt.adjust(&want)
			assert.Equal(t, want, cfg.Params())
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "merger_path: /a\nsync_path: /b\nmin_run: 1\nmax_run: 2\nharmonic_size: 10\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "inverted range",
			content: "merger_path: /a\nsync_path: /b\nmin_run: 9\nmax_run: 2\n",
			wantErr: "max_run",
		},
		{
			name:    "empty merger path",
			content: "merger_path: \"\"\nsync_path: /b\nmin_run: 1\nmax_run: 2\n",
			wantErr: "merger_path",
		},
		{
			name:    "bad policy",
			content: "merger_path: /a\nsync_path: /b\nmin_run: 1\nmax_run: 2\nmissing_event_policy: ignore\n",
			wantErr: "missing_event_policy",
		},
		{
			name:    "negative jobs",
			content: "merger_path: /a\nsync_path: /b\nmin_run: 1\nmax_run: 2\njobs: -2\n",
			wantErr: "jobs",
		},
		{
			name: "skip below anomaly",
			content: `merger_path: /a
sync_path: /b
min_run: 1
max_run: 2
thresholds:
  align_tolerance: 100
  depth: 5
  match_threshold: 5
  skip_threshold: 3
  anomaly_threshold: 5
`,
			wantErr: "skip_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_SchemaErrorIsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "merger_path: /a\nsync_path: /b\nmin_run: 3\nmax_run: 1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration not found")
}

func TestSaveLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, Default().Save(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestCheckPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{MergerPath: dir, SyncPath: dir}
	assert.NoError(t, cfg.CheckPaths())

	cfg.SyncPath = filepath.Join(dir, "missing")
	err := cfg.CheckPaths()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync path")

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	cfg.SyncPath = file
	err = cfg.CheckPaths()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestRuns(t *testing.T) {
	assert.Equal(t, []int{3, 4, 5}, (&Config{MinRun: 3, MaxRun: 5}).Runs())
	assert.Equal(t, []int{7}, (&Config{MinRun: 7, MaxRun: 7}).Runs())
	assert.Empty(t, (&Config{MinRun: 8, MaxRun: 7}).Runs())
}
