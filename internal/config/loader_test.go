package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"saptunectl/internal/engine"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)

	_, err = LoadConfig(path, true)
	var ce ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "io", ce.ErrorType)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig_Defaults(t *testing.T) {
	policy := GetDefaultConfig().Policy()
	assert.Equal(t, engine.Policy{
		DisableTuned:   true,
		DisableSapconf: true,
		Enabled:        true,
		Started:        true,
		IgnoreDegraded: true,
	}, policy)

	expr, err := GetDefaultConfig().Expression()
	require.NoError(t, err)
	assert.False(t, expr.IsUntouched())
	assert.Empty(t, expr.Entries())
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
apply:
  - "@HANA"
  - -941735
  - 1771258
force_reapply: true
no_tuned: false
started: false
keep_applied_if_stopped: true
command_timeout: 90s
watch:
  resync_interval: 1h
  metrics_textfile: /var/lib/node_exporter/saptunectl.prom
logging:
  level: debug
`)

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"@HANA", "-941735", "1771258"}, cfg.Apply.Entries)
	assert.False(t, cfg.Apply.Keep)
	assert.True(t, cfg.ForceReapply)
	assert.False(t, cfg.NoTuned)
	assert.True(t, cfg.NoSapconf, "unset keys keep their default")
	assert.False(t, cfg.Started)
	assert.True(t, cfg.KeepAppliedIfStopped)
	assert.Equal(t, 90*time.Second, cfg.CommandTimeout)
	assert.Equal(t, time.Hour, cfg.Watch.ResyncInterval)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, DefaultOverrideDirs, cfg.Watch.OverrideDirs)
	assert.Equal(t, "debug", cfg.Logging.Level)

	expr, err := cfg.Expression()
	require.NoError(t, err)
	assert.Equal(t, []string{"@HANA", "-941735", "1771258"}, expr.Entries())
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
apply = ["@NETWEAVER", 2578899]
ignore_non_compliant = true
staging_enabled = true

[watch]
debounce = "500ms"
max_retries = 2
`)

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"@NETWEAVER", "2578899"}, cfg.Apply.Entries)
	assert.True(t, cfg.IgnoreNonCompliant)
	assert.True(t, cfg.StagingEnabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 2, cfg.Watch.MaxRetries)
}

func TestLoadConfig_KeepSentinel(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "yaml", file: "c.yaml", content: "apply: keep\n"},
		{name: "toml", file: "c.toml", content: "apply = \"keep\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.file, tt.content), true)
			require.NoError(t, err)
			assert.True(t, cfg.Apply.Keep)

			expr, err := cfg.Expression()
			require.NoError(t, err)
			assert.True(t, expr.IsUntouched())
		})
	}
}

func TestLoadConfig_KeepAsListEntryIsAnIdentifier(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "c.yaml", "apply: [keep]\n"), true)
	require.NoError(t, err)
	assert.False(t, cfg.Apply.Keep)
	assert.Equal(t, []string{"keep"}, cfg.Apply.Entries)
}

func TestLoadConfig_EmptyListAndEmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "c.yaml", "apply: []\n"), true)
	require.NoError(t, err)
	assert.False(t, cfg.Apply.Keep)
	assert.Empty(t, cfg.Apply.Entries)

	cfg, err = LoadConfig(writeConfig(t, "c.yaml", ""), true)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		content   string
		errorType string
	}{
		{name: "unknown yaml key", file: "c.yaml", content: "force_reaply: true\n", errorType: "parse"},
		{name: "unknown toml key", file: "c.toml", content: "force_reaply = true\n", errorType: "parse"},
		{name: "unknown nested toml key", file: "c.toml", content: "[watch]\nintervall = \"1m\"\n", errorType: "parse"},
		{name: "apply scalar", file: "c.yaml", content: "apply: HANA\n", errorType: "parse"},
		{name: "apply mapping", file: "c.yaml", content: "apply: {a: b}\n", errorType: "parse"},
		{name: "apply toml scalar", file: "c.toml", content: "apply = \"HANA\"\n", errorType: "parse"},
		{name: "broken yaml", file: "c.yaml", content: "apply: [\n", errorType: "parse"},
		{name: "bad log level", file: "c.yaml", content: "logging:\n  level: loud\n", errorType: "validation"},
		{name: "negative retries", file: "c.yaml", content: "watch:\n  max_retries: -1\n", errorType: "validation"},
		{name: "empty binary", file: "c.yaml", content: "saptune_binary: \"\"\n", errorType: "validation"},
		{name: "textfile suffix", file: "c.yaml", content: "watch:\n  metrics_textfile: /tmp/x.txt\n", errorType: "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.file, tt.content), true)
			require.Error(t, err)

			var ce ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.errorType, ce.ErrorType)
			assert.Equal(t, tt.file, ce.FileName)
			assert.NotEmpty(t, ce.Suggestions)
			assert.Contains(t, ce.DetailedError(), "Suggestions:")
		})
	}
}

func TestValidate_ReportsConfigurationKeys(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "loud"
	cfg.Watch.MaxRetries = -3

	err := Validate(cfg)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)

	fields := []string{verrs[0].Field, verrs[1].Field}
	assert.ElementsMatch(t, []string{"watch.max_retries", "logging.level"}, fields)
}

func TestApplyList_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		Apply ApplyList `yaml:"apply"`
	}{Apply: KeepTuning()})
	require.NoError(t, err)
	assert.Equal(t, "apply: keep\n", string(out))

	out, err = yaml.Marshal(struct {
		Apply ApplyList `yaml:"apply"`
	}{Apply: ApplyList{}})
	require.NoError(t, err)
	assert.Equal(t, "apply: []\n", string(out))
}
