package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"saptunectl/pkg/logging"
)

// LoadConfig loads the configuration file at path on top of the defaults.
// A missing file yields the defaults unless required is set.
//
// Files ending in .toml are read as TOML, everything else as YAML. Unknown
// keys are rejected in both formats.
func LoadConfig(path string, required bool) (Config, error) {
	config := GetDefaultConfig() // Start with default config

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			logging.Info("Config", "No configuration found at %s, using defaults", path)
			return config, nil
		}
		return Config{}, newLoadError(path, "io", "cannot read configuration file", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = decodeTOML(data, &config)
	} else {
		err = decodeYAML(data, &config)
	}
	if err != nil {
		return Config{}, newLoadError(path, "parse", "malformed configuration", err)
	}

	if err := Validate(config); err != nil {
		return Config{}, newLoadError(path, "validation", "invalid configuration", err)
	}

	logging.Info("Config", "Loaded configuration from %s", path)
	return config, nil
}

func decodeYAML(data []byte, into *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, into *Config) error {
	md, err := toml.Decode(string(data), into)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown configuration attributes: %s", strings.Join(keys, ", "))
	}
	return nil
}

func newLoadError(path, errorType, message string, err error) ConfigurationError {
	ce := NewConfigurationErrorWithDetails(path, filepath.Base(path), errorType, message, err.Error(), suggestionsFor(errorType, err))
	ce.Err = err
	var te toml.ParseError
	if errors.As(err, &te) {
		ce.LineNumber = te.Position.Line
	}
	return ce
}

func suggestionsFor(errorType string, err error) []string {
	switch errorType {
	case "io":
		return []string{"check the path given with --config", "check the file permissions"}
	case "parse":
		if strings.Contains(err.Error(), "not found in type") || strings.Contains(err.Error(), "unknown configuration attributes") {
			return []string{"remove or rename the unknown key", "keys use snake_case, e.g. force_reapply"}
		}
		return []string{"check the indentation and quoting of the file"}
	case "validation":
		return []string{"see the field names in the error for the offending values"}
	}
	return nil
}
