// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/caarlos0/env/v11"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/httpsfix/pkg/report"
	"github.com/walteh/httpsfix/pkg/text"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "HTTPSFIX_"

// 📚 Config represents the complete run configuration
type Config struct {
	Root        string   `env:"ROOT" envDefault:"webgoat/JavaSource"`
	Extension   string   `env:"EXTENSION" envDefault:".java"`
	Excludes    []string `env:"EXCLUDE" envSeparator:","`
	Encoding    string   `env:"ENCODING" envDefault:"utf-8"`
	Format      string   `env:"FORMAT" envDefault:"text"`
	DryRun      bool     `env:"DRY_RUN"`
	FailOnError bool     `env:"FAIL_ON_ERROR"`
	Debug       bool     `env:"DEBUG"`
}

// 🎯 Load builds a Config from defaults and HTTPSFIX_* variables.
// A nil environ reads the process environment.
func Load(environ map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, errors.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

// 🧹 Normalize cleans the root path and lowercases the format. Call it
// before Validate once flags and arguments have been applied.
func (cfg *Config) Normalize() {
	if strings.TrimSpace(cfg.Root) != "" {
		cfg.Root = filepath.Clean(cfg.Root)
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
}

// 🔍 Validate checks if the configuration is valid. It does not modify cfg.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Root) == "" {
		return errors.Errorf("root is required")
	}

	if err := validateExtension(cfg.Extension); err != nil {
		return err
	}

	for _, exclude := range cfg.Excludes {
		if !doublestar.ValidatePattern(exclude) {
			return errors.Errorf("invalid exclude pattern %q", exclude)
		}
	}

	switch cfg.Format {
	case report.FormatText, report.FormatJSON, report.FormatYAML:
	default:
		return errors.Errorf("unknown format %q, expected one of %s", cfg.Format, strings.Join(report.Formats, ", "))
	}

	if _, err := text.LookupCodec(cfg.Encoding); err != nil {
		return errors.Errorf("validating encoding: %w", err)
	}

	return nil
}

func validateExtension(ext string) error {
	if ext == "" {
		return errors.Errorf("extension is required")
	}
	if !strings.HasPrefix(ext, ".") || ext == "." {
		return errors.Errorf("extension %q must start with a dot, e.g. .java", ext)
	}
	if strings.ContainsAny(ext, `/\*?[]{}!`) {
		return errors.Errorf("extension %q must not contain path separators or glob characters", ext)
	}
	return nil
}

// Codec returns the codec for the configured encoding
func (cfg *Config) Codec() (text.Codec, error) {
	return text.LookupCodec(cfg.Encoding)
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	s := fmt.Sprintf("%s/**/*%s (%s)", cfg.Root, cfg.Extension, cfg.Encoding)
	if cfg.DryRun {
		s += " [dry run]"
	}
	return s
}
