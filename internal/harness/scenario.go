package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kvisten/autosave"
)

// Scenario defines one debounce conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Config is the debounce policy under test.
	Config ConfigSpec `yaml:"config"`

	// Steps is the timeline, executed in order.
	Steps []Step `yaml:"steps"`
}

// ConfigSpec is the YAML form of autosave.Config. Durations use Go syntax.
type ConfigSpec struct {
	Delay     string `yaml:"delay,omitempty"`
	MaxWait   string `yaml:"max_wait,omitempty"`
	Immediate bool   `yaml:"immediate,omitempty"`
}

// Step is one timeline entry. Exactly one field must be set.
type Step struct {
	// Mutate merges the given keys into the state document and signals
	// one logical mutation.
	Mutate map[string]any `yaml:"mutate,omitempty"`

	// Advance moves the fake clock forward, firing due timers.
	Advance string `yaml:"advance,omitempty"`

	// Flush triggers a manual flush.
	Flush bool `yaml:"flush,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("harness: read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("harness: parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("harness: scenario %s: %w", path, err)
	}
	return &sc, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name for
// deterministic test ordering.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("harness: scan %s: %w", dir, err)
	}
	sort.Strings(paths)
	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// Validate checks structural invariants before execution.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	if _, err := s.Config.ToConfig(); err != nil {
		return err
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	set := 0
	if st.Mutate != nil {
		set++
	}
	if st.Advance != "" {
		set++
		if _, err := time.ParseDuration(st.Advance); err != nil {
			return fmt.Errorf("bad advance duration %q: %w", st.Advance, err)
		}
	}
	if st.Flush {
		set++
	}
	if set != 1 {
		return fmt.Errorf("exactly one of mutate, advance, flush must be set")
	}
	return nil
}

// ToConfig parses the spec into the runtime config.
func (c ConfigSpec) ToConfig() (autosave.Config, error) {
	var cfg autosave.Config
	var err error
	if c.Delay != "" {
		if cfg.Delay, err = time.ParseDuration(c.Delay); err != nil {
			return cfg, fmt.Errorf("bad delay %q: %w", c.Delay, err)
		}
	}
	if c.MaxWait != "" {
		if cfg.MaxWait, err = time.ParseDuration(c.MaxWait); err != nil {
			return cfg, fmt.Errorf("bad max_wait %q: %w", c.MaxWait, err)
		}
	}
	cfg.Immediate = c.Immediate
	return cfg, nil
}
