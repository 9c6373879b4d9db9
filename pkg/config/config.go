// Package config loads the single YAML configuration file a pipeline
// process reads once at startup: work store location, per-phase
// instance counts, per-machine index ranges, external collaborator
// endpoints, resource thresholds, and the other enumerated settings
// every worker and launcher needs. Config is loaded once into an
// immutable struct; workers never re-read it mid-run.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/cuemby/docpipeline/pkg/launcher"
	"github.com/cuemby/docpipeline/pkg/resource"
	"github.com/cuemby/docpipeline/pkg/secrets"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so the YAML file can spell timeouts and
// intervals as "30s"/"10m" the way every other duration in this fleet's
// manifests is written; time.Duration itself has no YAML text decoding,
// so yaml.v3 would otherwise reject a duration string as a non-numeric
// value for an int64 field.
type Duration time.Duration

// UnmarshalYAML parses a duration string via time.ParseDuration.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MachineConfig assigns a machine tag an exclusive slice of the global
// input enumeration (the `Slot` index workstore.ScanInput produces).
type MachineConfig struct {
	Tag  string `yaml:"tag"`
	From int    `yaml:"from"`
	To   int    `yaml:"to"`
}

// PhaseConfig holds the per-phase settings that vary by phase: how many
// instances a machine should run, and the timeout its model/OCR calls
// use.
type PhaseConfig struct {
	InstanceCount int      `yaml:"instance_count"`
	Timeout       Duration `yaml:"timeout"`
}

// ModelEndpoint names a local-inference tier's HTTP endpoint and model.
type ModelEndpoint struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// InferenceConfig is the three-tier escalation ladder's endpoint set.
type InferenceConfig struct {
	Small  ModelEndpoint `yaml:"small"`
	Medium ModelEndpoint `yaml:"medium"`
	Large  ModelEndpoint `yaml:"large"`
}

// ExternalModelConfig is the Phase 3 external large-model endpoint and
// its daily spend ceiling. APITokenRef is a name resolved through the
// secrets store or an environment-variable override, never a literal
// token in the file.
type ExternalModelConfig struct {
	URL               string  `yaml:"url"`
	Model             string  `yaml:"model"`
	APITokenRef       string  `yaml:"api_token_ref"`
	DailyCeiling      float64 `yaml:"daily_ceiling"`
	CostPerCall       float64 `yaml:"cost_per_call"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// DeliveryConfig is the document-management target.
type DeliveryConfig struct {
	URL      string `yaml:"url"`
	TokenRef string `yaml:"token_ref"`
}

// ResourceConfig is the Resource Monitor's sampling thresholds.
type ResourceConfig struct {
	CPUPercent     float64  `yaml:"cpu_percent"`
	MemoryPercent  float64  `yaml:"memory_percent"`
	GPUPercent     float64  `yaml:"gpu_percent"`
	MinFreeDiskGiB float64  `yaml:"min_free_disk_gib"`
	SampleInterval Duration `yaml:"sample_interval"`
}

// RetryConfig is a bounded exponential backoff policy, parsed from the
// delivery_retry block. No worker reads it: Phase 3's external-model calls
// and Phase 5's delivery upload/patch retries each use a built-in policy.
type RetryConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	Initial     Duration `yaml:"initial"`
	Factor      float64  `yaml:"factor"`
	Cap         Duration `yaml:"cap"`
}

// Config is the full enumerated configuration surface.
type Config struct {
	WorkStoreRoot string                 `yaml:"work_store_root"`
	Machines      []MachineConfig        `yaml:"machines"`
	Phases        map[string]PhaseConfig `yaml:"phases"`

	OCR struct {
		URL     string   `yaml:"url"`
		Timeout Duration `yaml:"timeout"`
	} `yaml:"ocr"`

	Inference     InferenceConfig     `yaml:"inference"`
	ExternalModel ExternalModelConfig `yaml:"external_model"`
	Delivery      DeliveryConfig      `yaml:"delivery"`
	Resource      ResourceConfig      `yaml:"resource"`
	DeliveryRetry RetryConfig         `yaml:"delivery_retry"`

	StaleLockTTL              Duration `yaml:"stale_lock_ttl"`
	CorrespondentMappingsPath string   `yaml:"correspondent_mappings_path"`

	SecretsStorePath     string `yaml:"secrets_store_path"`
	SecretsPassphraseEnv string `yaml:"secrets_passphrase_env"`
}

// Load reads and parses the YAML configuration file at path and
// validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the enumerated settings a malformed config file could
// omit or corrupt. A failure here is the "configuration error" exit-code-1
// case (spec.md §6).
func (c *Config) Validate() error {
	if c.WorkStoreRoot == "" {
		return fmt.Errorf("work_store_root is required")
	}
	if len(c.Machines) == 0 {
		return fmt.Errorf("at least one machine must be configured")
	}
	seen := make(map[string]bool, len(c.Machines))
	for _, m := range c.Machines {
		if m.Tag == "" {
			return fmt.Errorf("machine entry missing tag")
		}
		if seen[m.Tag] {
			return fmt.Errorf("duplicate machine tag %q", m.Tag)
		}
		seen[m.Tag] = true
		if m.To < m.From {
			return fmt.Errorf("machine %q has an inverted range [%d,%d)", m.Tag, m.From, m.To)
		}
	}
	for name, p := range c.Phases {
		if p.InstanceCount < 0 {
			return fmt.Errorf("phase %q has a negative instance count", name)
		}
	}
	if c.StaleLockTTL <= 0 {
		return fmt.Errorf("stale_lock_ttl must be positive")
	}
	if c.ExternalModel.RequestsPerSecond <= 0 {
		c.ExternalModel.RequestsPerSecond = 1
	}
	if c.ExternalModel.Burst <= 0 {
		c.ExternalModel.Burst = 1
	}
	return nil
}

// MachineRange returns the configured index range for the machine
// identified by tag.
func (c *Config) MachineRange(tag string) (launcher.Range, bool) {
	for _, m := range c.Machines {
		if m.Tag == tag {
			return launcher.Range{From: m.From, To: m.To}, true
		}
	}
	return launcher.Range{}, false
}

// PhaseSettings returns the configured settings for phase (keyed
// "phase1".."phase5" in the YAML file).
func (c *Config) PhaseSettings(key string) (PhaseConfig, bool) {
	p, ok := c.Phases[key]
	return p, ok
}

// Thresholds converts the configured resource settings into a
// resource.Thresholds.
func (c *Config) Thresholds() resource.Thresholds {
	return resource.Thresholds{
		CPUPercent:     c.Resource.CPUPercent,
		MemoryPercent:  c.Resource.MemoryPercent,
		GPUPercent:     c.Resource.GPUPercent,
		MinFreeDiskGiB: c.Resource.MinFreeDiskGiB,
	}
}

// ResolveSecret resolves a token reference to its plaintext value. A
// reference of the form "env:NAME" is read directly from the
// environment, bypassing the secrets store entirely (used for local
// development or CI); any other reference is looked up by name in store.
func ResolveSecret(store *secrets.Store, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if name, ok := envOverrideName(ref); ok {
		val, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("config: environment variable %q referenced by %q is not set", name, ref)
		}
		return val, nil
	}
	if store == nil {
		return "", fmt.Errorf("config: no secrets store available to resolve %q", ref)
	}
	return store.Get(ref)
}

func envOverrideName(ref string) (string, bool) {
	const prefix = "env:"
	if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
		return ref[len(prefix):], true
	}
	return "", false
}
