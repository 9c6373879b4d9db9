package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/docpipeline/pkg/launcher"
	"github.com/cuemby/docpipeline/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
work_store_root: /data/pipeline
machines:
  - tag: host-a
    from: 0
    to: 1000
  - tag: host-b
    from: 1000
    to: 2000
phases:
  phase1:
    instance_count: 4
    timeout: 30s
  phase2:
    instance_count: 2
    timeout: 90s
ocr:
  url: http://ocr.internal:8080
  timeout: 20s
inference:
  small:
    url: http://infer-small.internal
    model: small-v1
  medium:
    url: http://infer-medium.internal
    model: medium-v1
  large:
    url: http://infer-large.internal
    model: large-v1
external_model:
  url: http://external.internal
  model: gpt-external
  api_token_ref: env:EXTERNAL_MODEL_TOKEN
  daily_ceiling: 50.0
  cost_per_call: 0.02
delivery:
  url: http://dms.internal
  token_ref: delivery_token
resource:
  cpu_percent: 85
  memory_percent: 85
  gpu_percent: 90
  min_free_disk_gib: 10
  sample_interval: 5s
delivery_retry:
  max_attempts: 3
  initial: 2s
  factor: 2
  cap: 30s
stale_lock_ttl: 10m
correspondent_mappings_path: /data/pipeline/mappings.yaml
secrets_store_path: /data/pipeline/secrets.json
secrets_passphrase_env: PIPELINE_SECRETS_PASSPHRASE
`

func writeSampleConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	return path
}

func TestLoad_ParsesFullConfig(t *testing.T) {
	path := writeSampleConfig(t)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/pipeline", cfg.WorkStoreRoot)
	assert.Equal(t, "small-v1", cfg.Inference.Small.Model)
	assert.Equal(t, 50.0, cfg.ExternalModel.DailyCeiling)
	assert.Equal(t, "http://dms.internal", cfg.Delivery.URL)
}

func TestLoad_RejectsMissingWorkStoreRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("machines:\n  - tag: a\n    from: 0\n    to: 1\nstale_lock_ttl: 1m\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsDuplicateMachineTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "work_store_root: /data\nmachines:\n  - tag: a\n    from: 0\n    to: 1\n  - tag: a\n    from: 1\n    to: 2\nstale_lock_ttl: 1m\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsInvertedMachineRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "work_store_root: /data\nmachines:\n  - tag: a\n    from: 10\n    to: 1\nstale_lock_ttl: 1m\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_MachineRange(t *testing.T) {
	cfg, err := Load(writeSampleConfig(t))
	require.NoError(t, err)

	r, ok := cfg.MachineRange("host-b")
	require.True(t, ok)
	assert.Equal(t, launcher.Range{From: 1000, To: 2000}, r)

	_, ok = cfg.MachineRange("unknown")
	assert.False(t, ok)
}

func TestConfig_Thresholds(t *testing.T) {
	cfg, err := Load(writeSampleConfig(t))
	require.NoError(t, err)

	th := cfg.Thresholds()
	assert.Equal(t, 85.0, th.CPUPercent)
	assert.Equal(t, 10.0, th.MinFreeDiskGiB)
}

func TestResolveSecret_EnvOverrideBypassesStore(t *testing.T) {
	t.Setenv("EXTERNAL_MODEL_TOKEN", "super-secret")
	val, err := ResolveSecret(nil, "env:EXTERNAL_MODEL_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "super-secret", val)
}

func TestResolveSecret_EnvOverrideMissingVariableErrors(t *testing.T) {
	_, err := ResolveSecret(nil, "env:DOES_NOT_EXIST_XYZ")
	assert.Error(t, err)
}

func TestResolveSecret_LooksUpNameInStore(t *testing.T) {
	store, err := secrets.NewStoreFromPassphrase("test-pass")
	require.NoError(t, err)
	require.NoError(t, store.Set("delivery_token", []byte("tok-123")))

	val, err := ResolveSecret(store, "delivery_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", val)
}

func TestLoad_DefaultsExternalModelRateLimit(t *testing.T) {
	cfg, err := Load(writeSampleConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.ExternalModel.RequestsPerSecond)
	assert.Equal(t, 1, cfg.ExternalModel.Burst)
}

func TestResolveSecret_EmptyRefReturnsEmpty(t *testing.T) {
	val, err := ResolveSecret(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}
