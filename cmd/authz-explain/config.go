// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package main

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	grantgraph "github.com/grantgraph/grantgraph"
	"github.com/grantgraph/grantgraph/internal/xdg"
)

// appConfig holds settings shared across subcommands, loaded from (in
// increasing precedence) built-in defaults, a YAML config file, and
// command-line flags.
type appConfig struct {
	MaxDepth          int    `koanf:"max-depth"`
	AllResourcesGroup string `koanf:"all-resources-group"`
	LogFormat         string `koanf:"log-format"`
	MetricsAddr       string `koanf:"metrics-addr"`
	AuditMode         string `koanf:"audit-mode"`
}

func defaultConfig() appConfig {
	return appConfig{
		MaxDepth:          32,
		AllResourcesGroup: "AllResourcesGroup",
		LogFormat:         "json",
		MetricsAddr:       "127.0.0.1:9100",
		AuditMode:         "minimal",
	}
}

// loadConfig builds an appConfig from defaults (the flag defaults
// registered on fs), the file named by configFile (if it exists; a
// missing default path is not an error), and any flags the caller
// actually set, in that order of increasing precedence.
func loadConfig(configFile string, fs *pflag.FlagSet) (*appConfig, error) {
	k := koanf.New(".")

	path := configFile
	if path == "" {
		path = xdg.ConfigDir() + "/config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(grantgraph.CodeInvalidRequest).With("path", path).Wrapf(err, "loading config file")
		}
	} else if configFile != "" {
		return nil, oops.Code(grantgraph.CodeInvalidRequest).With("path", path).Errorf("config file not found")
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.Code(grantgraph.CodeInvalidRequest).Wrapf(err, "loading flag overrides")
	}

	var out appConfig
	if err := k.Unmarshal("", &out); err != nil {
		return nil, oops.Code(grantgraph.CodeInvalidRequest).Wrapf(err, "unmarshaling config")
	}
	return &out, nil
}

// envOr returns the value of the named environment variable, or def if unset.
func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

// WithOptions translates the loaded config into engine Options.
func (c appConfig) WithOptions() []grantgraph.Option {
	return []grantgraph.Option{
		grantgraph.WithMaxDepth(c.MaxDepth),
		grantgraph.WithAllResourcesGroupID(c.AllResourcesGroup),
	}
}
