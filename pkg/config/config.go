// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the platform's runtime configuration from a
// YAML file overlaid with environment variables, following the
// teacher's viper usage: a file path supplied by the CLI, defaults
// registered up front, and automatic env-var binding under a single
// prefix so deployments never need a config file at all.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix every environment variable override uses,
// e.g. PLATFORM_DOCSTORE_DSN overrides docstore.dsn.
const EnvPrefix = "PLATFORM"

// Config is the full set of knobs the platform binary needs to start:
// where to listen, where the document substrate lives, the key the
// OAuth2 core signs token/code lookup keys with, and the tick
// intervals the controller runtime's watchers and garbage collector
// run on.
type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`

	Docstore struct {
		Driver      string `mapstructure:"driver"`
		DSN         string `mapstructure:"dsn"`
		Partitioned bool   `mapstructure:"partitioned"`
	} `mapstructure:"docstore"`

	OAuth struct {
		SigningKey string `mapstructure:"signing_key"`
	} `mapstructure:"oauth"`

	Runtime struct {
		ResyncInterval time.Duration `mapstructure:"resync_interval"`
		GCInterval     time.Duration `mapstructure:"gc_interval"`
	} `mapstructure:"runtime"`
}

// Default returns the configuration used when no file and no env
// overrides are present — suitable for local development against a
// single-node CouchDB and nothing else.
func Default() Config {
	var c Config
	c.HTTPAddr = ":8443"
	c.Docstore.Driver = "couch"
	c.Docstore.DSN = "http://localhost:5984/"
	c.Docstore.Partitioned = true
	c.Runtime.ResyncInterval = 5 * time.Minute
	c.Runtime.GCInterval = time.Minute
	return c
}

// Load reads configuration from path (if non-empty) plus any
// PLATFORM_-prefixed environment variables, which always take
// precedence over file values. An empty path skips the file read
// entirely and returns Default() overlaid with the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("http_addr", d.HTTPAddr)
	v.SetDefault("docstore.driver", d.Docstore.Driver)
	v.SetDefault("docstore.dsn", d.Docstore.DSN)
	v.SetDefault("docstore.partitioned", d.Docstore.Partitioned)
	v.SetDefault("oauth.signing_key", d.OAuth.SigningKey)
	v.SetDefault("runtime.resync_interval", d.Runtime.ResyncInterval)
	v.SetDefault("runtime.gc_interval", d.Runtime.GCInterval)
}
