// Package config holds the agent settings and loads them from a TOML file.
// Flags and environment variables are layered on top by the command.
package config

import (
	"os"
	"time"

	"github.com/bottlerocket-os/switchdog/pkg/agent"
	"github.com/bottlerocket-os/switchdog/pkg/auth"
	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/bottlerocket-os/switchdog/pkg/fetch"
	"github.com/bottlerocket-os/switchdog/pkg/platform/switchtool"
	"github.com/pelletier/go-toml"
)

const (
	// DefaultFile is read when no other file is named.
	DefaultFile = "/etc/switchdog/config.toml"
	// DefaultLocation holds the commit token.
	DefaultLocation = "/etc/switchdog"
	// DefaultService labels the signature scope.
	DefaultService = "projects"
)

// Config is the full agent configuration.
type Config struct {
	Endpoint      string `toml:"endpoint"`
	ServiceKey    string `toml:"service-key"`
	ServiceSecret string `toml:"service-secret"`
	ServiceName   string `toml:"service-name"`
	Region        string `toml:"region"`
	BinPath       string `toml:"bin-path"`
	SwitchCommand string `toml:"switch-command"`
	ConfigPath    string `toml:"config-path"`
	Schedule      string `toml:"schedule"`
	LogLevel      string `toml:"log-level"`
	Timeout       string `toml:"timeout"`
	MetricsListen string `toml:"metrics-listen"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		ServiceName:   DefaultService,
		Region:        auth.DefaultRegion,
		BinPath:       switchtool.DefaultSearchPath,
		SwitchCommand: switchtool.DefaultCommand,
		ConfigPath:    DefaultLocation,
		LogLevel:      "info",
		Timeout:       fetch.DefaultTimeout.String(),
	}
}

// LoadFile overlays the values set in the TOML file at path onto cfg. Keys
// absent from the file keep their current value. A missing file is not an
// error.
func LoadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fault.Wrapf(fault.Configuration, err, "unable to read config file %s", path)
	}
	var file Config
	if err := toml.Unmarshal(raw, &file); err != nil {
		return fault.Wrapf(fault.Configuration, err, "unable to parse config file %s", path)
	}
	cfg.overlay(file)
	return nil
}

// overlay copies the non-empty values of o onto c.
func (c *Config) overlay(o Config) {
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&c.Endpoint, o.Endpoint},
		{&c.ServiceKey, o.ServiceKey},
		{&c.ServiceSecret, o.ServiceSecret},
		{&c.ServiceName, o.ServiceName},
		{&c.Region, o.Region},
		{&c.BinPath, o.BinPath},
		{&c.SwitchCommand, o.SwitchCommand},
		{&c.ConfigPath, o.ConfigPath},
		{&c.Schedule, o.Schedule},
		{&c.LogLevel, o.LogLevel},
		{&c.Timeout, o.Timeout},
		{&c.MetricsListen, o.MetricsListen},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
}

// Validate checks the settings needed to start. The endpoint is checked by
// each run instead.
func (c Config) Validate() error {
	if c.Schedule == "" {
		return fault.New(fault.Configuration, "schedule must be provided")
	}
	if _, err := c.FetchTimeout(); err != nil {
		return err
	}
	return nil
}

// FetchTimeout parses the HTTP timeout. An empty value selects the default.
func (c Config) FetchTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return fetch.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fault.Wrapf(fault.Configuration, err, "invalid timeout %q", c.Timeout)
	}
	if d <= 0 {
		return 0, fault.Errorf(fault.Configuration, "timeout must be positive, got %s", d)
	}
	return d, nil
}

// Agent returns the settings a workflow run needs.
func (c Config) Agent() agent.Config {
	return agent.Config{
		Endpoint: c.Endpoint,
		Credential: auth.Credential{
			Key:    c.ServiceKey,
			Secret: c.ServiceSecret,
		},
		Service:  c.ServiceName,
		Region:   c.Region,
		Location: c.ConfigPath,
	}
}
