// Package config loads and validates the synchronizer configuration.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/attpc/synchronizer/internal/timesync"
)

//go:embed schema.cue
var schemaCUE string

// MissingEventPolicy decides what happens when a planned pair cannot be read.
type MissingEventPolicy string

const (
	// PolicySkip drops the pair and logs a warning.
	PolicySkip MissingEventPolicy = "skip"
	// PolicyFail aborts the run.
	PolicyFail MissingEventPolicy = "fail"
)

// ErrInvalid wraps every schema validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Thresholds mirrors timesync.Params in the configuration file.
type Thresholds struct {
	AlignTolerance   int64 `yaml:"align_tolerance" json:"align_tolerance"`
	Depth            int   `yaml:"depth" json:"depth"`
	MatchThreshold   int64 `yaml:"match_threshold" json:"match_threshold"`
	SkipThreshold    int64 `yaml:"skip_threshold" json:"skip_threshold"`
	AnomalyThreshold int64 `yaml:"anomaly_threshold" json:"anomaly_threshold"`
}

// Config is the persisted synchronizer configuration.
type Config struct {
	// MergerPath is the directory holding the merger run containers.
	MergerPath string `yaml:"merger_path" json:"merger_path"`

	// SyncPath is the directory receiving synchronized containers.
	// It must exist before synchronizing.
	SyncPath string `yaml:"sync_path" json:"sync_path"`

	// MinRun and MaxRun bound the inclusive range of run numbers.
	// Runs missing from the range are skipped.
	MinRun int `yaml:"min_run" json:"min_run"`
	MaxRun int `yaml:"max_run" json:"max_run"`

	// Jobs is the number of runs processed concurrently.
	Jobs int `yaml:"jobs,omitempty" json:"jobs"`

	// MissingEventPolicy applies when a planned GET or FRIB event is absent.
	MissingEventPolicy MissingEventPolicy `yaml:"missing_event_policy,omitempty" json:"missing_event_policy"`

	Thresholds *Thresholds `yaml:"thresholds,omitempty" json:"thresholds"`
}

// Default returns the template written by the new command.
func Default() *Config {
	cfg := &Config{
		MergerPath: "/path/to/some/merger/data/",
		SyncPath:   "/path/to/some/synchronic/data/",
		MinRun:     55,
		MaxRun:     69,
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML configuration, fills defaults and validates it.
// Unknown fields are rejected.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	// Omitted thresholds keep their defaults; yaml decodes into the set pointer.
	cfg := Config{Thresholds: defaultThresholds()}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	return nil
}

// Validate checks the configuration against the embedded CUE schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile configuration schema: %w", err)
	}

	value := schema.Unify(ctx.Encode(c))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, cueerrors.Details(err, nil))
	}
	return nil
}

// CheckPaths verifies that both data directories exist.
func (c *Config) CheckPaths() error {
	for _, dir := range []struct{ name, path string }{
		{"merger path", c.MergerPath},
		{"sync path", c.SyncPath},
	} {
		info, err := os.Stat(dir.path)
		if err != nil {
			return fmt.Errorf("%s %s does not exist: %w", dir.name, dir.path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s %s is not a directory", dir.name, dir.path)
		}
	}
	return nil
}

// Params converts the thresholds into engine parameters.
func (c *Config) Params() timesync.Params {
	p := timesync.DefaultParams()
	if c.Thresholds == nil {
		return p
	}
	return timesync.Params{
		AlignTolerance:   c.Thresholds.AlignTolerance,
		Depth:            c.Thresholds.Depth,
		MatchThreshold:   c.Thresholds.MatchThreshold,
		SkipThreshold:    c.Thresholds.SkipThreshold,
		AnomalyThreshold: c.Thresholds.AnomalyThreshold,
	}
}

// Runs returns the run numbers of the configured range in ascending order.
func (c *Config) Runs() []int {
	if c.MaxRun < c.MinRun {
		return nil
	}
	runs := make([]int, 0, c.MaxRun-c.MinRun+1)
	for run := c.MinRun; run <= c.MaxRun; run++ {
		runs = append(runs, run)
	}
	return runs
}

func (c *Config) applyDefaults() {
	if c.Jobs == 0 {
		c.Jobs = 1
	}
	if c.MissingEventPolicy == "" {
		c.MissingEventPolicy = PolicySkip
	}
	if c.Thresholds == nil {
		c.Thresholds = defaultThresholds()
	}
}

func defaultThresholds() *Thresholds {
	p := timesync.DefaultParams()
	return &Thresholds{
		AlignTolerance:   p.AlignTolerance,
		Depth:            p.Depth,
		MatchThreshold:   p.MatchThreshold,
		SkipThreshold:    p.SkipThreshold,
		AnomalyThreshold: p.AnomalyThreshold,
	}
}
