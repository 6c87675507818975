package config

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Procfile is the parsed process manifest consumed by the supervisor.
type Procfile struct {
	Version  string            `yaml:"version"`
	Defaults Defaults          `yaml:"defaults,omitempty"`
	Entries  map[string]*Entry `yaml:"entries"`
}

// Defaults carries manifest-wide settings merged onto entries that do not
// override them.
type Defaults struct {
	Restart         *RestartPolicy `yaml:"restart,omitempty"`
	StopGracePeriod Duration       `yaml:"stopGracePeriod,omitempty"`
}

// Entry describes one supervised process.
type Entry struct {
	Command     []string          `yaml:"command"`
	Cwd         string            `yaml:"cwd,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	EnvFromFile string            `yaml:"envFromFile,omitempty"`
	EnvRemove   []string          `yaml:"envRemove,omitempty"`
	SearchPath  bool              `yaml:"searchPath,omitempty"`
	Detached    bool              `yaml:"detached,omitempty"`
	Disabled    bool              `yaml:"disabled,omitempty"`
	Restart     *RestartPolicy    `yaml:"restart,omitempty"`
}

// RestartPolicy controls when an exited entry is spawned again.
type RestartPolicy struct {
	// Policy is one of "never", "on-failure" or "always".
	Policy     string   `yaml:"policy"`
	MaxRetries int      `yaml:"maxRetries,omitempty"`
	Backoff    *Backoff `yaml:"backoff,omitempty"`
}

// Backoff shapes the delay between restart attempts.
type Backoff struct {
	Min    Duration `yaml:"min,omitempty"`
	Max    Duration `yaml:"max,omitempty"`
	Factor float64  `yaml:"factor,omitempty"`
}

// Clone returns a deep copy of the policy.
func (r *RestartPolicy) Clone() *RestartPolicy {
	if r == nil {
		return nil
	}
	dup := *r
	if r.Backoff != nil {
		b := *r.Backoff
		dup.Backoff = &b
	}
	return &dup
}

// Duration wraps time.Duration with YAML support for "3s" style strings.
type Duration struct {
	time.Duration
}

// UnmarshalYAML accepts Go duration strings and bare integers (seconds).
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d.Duration = parsed
	case int:
		d.Duration = time.Duration(v) * time.Second
	case float64:
		d.Duration = time.Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

// MarshalYAML renders the duration back as a string.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// EntriesSorted returns entry names in stable alphabetical order.
func (p *Procfile) EntriesSorted() []string {
	names := make([]string, 0, len(p.Entries))
	for name := range p.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
